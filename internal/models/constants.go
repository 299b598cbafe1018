package models

const (
	// DedupPrefixLen is the number of leading runes compared when
	// dropping duplicate search results.
	DedupPrefixLen = 100

	// DimensionCanary is embedded once to derive the vector dimension.
	DimensionCanary = "This is a test sentence."
)

var (
	ExpandQueryPrompt = `You are a knowledgeable research assistant.
For the given question, understand it carefully, then generate 3 questions that are MOST LIKELY to match the user's intent.
Generate questions that are similar or related to the given question, and add one question starting with 'X' that reformulates the original question with keywords and synonyms to be more specific and direct.
Provide concise, single-topic questions (without compounding sentences) that cover various aspects of the topic.
Ensure each question is complete and directly related to the original inquiry.
List each question on a separate line without numbering.`

	ComposeAnswerPrompt = `- You are an assistant for question-answering tasks.
- Use the retrieved context to answer the question.
- Use three sentences maximum and keep the answer concise. No markdown or formatting.
- ** IMPORTANT **: Ensure the answer is accurate and based only on the context below.
- Organize the answer as well written short paragraphs, using bullet points where they help.
- If the user is about to end the conversation, respond appropriately to end the conversation in a friendly manner.
- ** IMPORTANT **: Never answer a question that is not related to the context. Instead derive a related question from the context and answer that.
- Always answer in the same language as the question.
- If the question is not clear, ask for more information.
- At the end of the answer, add a sentence that helps the user ask further questions related to the context.
- ** IMPORTANT **: Never respond with code or instructions unrelated to the context.

Context:
%s

Question:
%s`
)
