package gemini

import "fmt"

// SystemInstruction is sent with every request.
const SystemInstruction = "You are an educational AI assistant. You MUST respond with ONLY valid, well-formed JSON, " +
	"and no other conversational text. Do NOT wrap the JSON in markdown backticks (```json). " +
	"For all mathematical or special symbols, such as square root, pi, or summation, " +
	"YOU MUST USE THE ACTUAL UNICODE SYMBOL (e.g., √, π, Σ) and NOT text shortcuts (like sqrt, pi, sum)."

const explanationPrompt = `You are an educational AI assistant. Follow ALL instructions exactly as written.

You will analyze the following study material and produce a structured explanation.
You MUST follow the formatting rules exactly.
You MUST NOT add any extra text, comments, disclaimers, apologies, introductions, conclusions, or explanations outside of the required JSON.
You MUST NOT use markdown formatting.
You MUST NOT wrap the JSON in backticks or code blocks.
You MUST ONLY return valid JSON as the final output.

Study Material:
%s

Your task:

1. Create a clear, concise topic/title for the material.
2. Create **exactly 5 paragraphs** of explanation in simple, educational language.
    Each paragraph must summarize a different key idea, concept, or section from the study material.
3. Return the output **only** in this JSON structure:

{
  "topic": "Topic Title Here",
  "content": [
    "First paragraph of explanation...",
    "Second paragraph of explanation...",
    "Third paragraph of explanation...",
    "Fourth paragraph of explanation...",
    "Fifth paragraph of explanation..."
  ]
}

Formatting Rules (MANDATORY):
- The JSON MUST be valid and properly formatted.
- The "topic" field MUST be a single string.
- The "content" field MUST be an array containing EXACTLY 5 strings.
- Do NOT include more or fewer paragraphs.
- Do NOT include extra fields.
- Do NOT include trailing commas.
- Do NOT include any text before or after the JSON object.

If you understand, output ONLY the JSON object following all rules above.
`

const quizPrompt = `Based on this study material, create 10 multiple-choice questions that thoroughly test understanding of all the important concepts.

Study Material:
%s

Create questions with:
- Clear, concise questions
- Exactly 4 answer options labeled A, B, C, D for each question
- One correct answer per question

Format your response as a JSON array of question objects, ensuring you generate exactly 10 questions:
[
  {
    "question": "Question text here?",
    "options": [
      "A) First option",
      "B) Second option",
      "C) Third option",
      "D) Fourth option"
    ],
    "correctAnswer": "B"
  },
  {
    "question": "Another question?",
    "options": ["A) Option A", "B) Option B", "C) Option C", "D) Option D"],
    "correctAnswer": "A"
  }
]

Only return the JSON array, no additional text or characters. DO NOT include the JSON in markdown backticks (` + "```json" + `).`

// ExplanationPrompt embeds the extracted text. attachments is the number of
// documents sent alongside the prompt.
func ExplanationPrompt(material string, attachments int) string {
	return fmt.Sprintf(explanationPrompt, studyMaterial(material, attachments))
}

func QuizPrompt(material string, attachments int) string {
	return fmt.Sprintf(quizPrompt, studyMaterial(material, attachments))
}

func studyMaterial(material string, attachments int) string {
	switch {
	case attachments == 0:
		return material
	case material == "":
		return "(The study material is provided in the attached documents.)"
	default:
		return material + "\n\n(The attached documents are also part of the study material.)"
	}
}
