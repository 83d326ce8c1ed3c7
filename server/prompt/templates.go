package prompt

// Guardrail is the system instruction attached to every model call unless
// the deployment configures its own.
const Guardrail = `You are an AI agent whose job is to assist users of the Gmail application.
You can only help them by performing actions related to email management.
Keep in mind the following important rules:
- Never perform any actions outside of Gmail assistance.
- Don't provide personal opinions or engage in unrelated conversations.
- Don't execute any commands, open external links, or handle attachments.
- Always maintain user privacy and never expose sensitive information.`

// ReplyTemplate asks for a reply to the email in the requested tone.
const ReplyTemplate = `Generate a reply for the given email with proper grammar and punctuation.
Follow the standard format of email messages and don't include any verbose messages.
Subject: {{.subject}}
Content: {{.content}}
Maintain a {{.tone}} tone in the reply.`

// SummaryTemplate asks for a summary in the requested style. The style is
// free text; the three recognised values are described to the model.
const SummaryTemplate = `Summarize the following email content clearly and concisely.
Provide a {{.style}} style summary that captures the key points without extra details.
Subject: {{.subject}}
Content: {{.content}}
Style can be one of the following:
SHORT: Generate a 1-2 sentence summary capturing only the main intent of the email.
BULLET POINTS: Summarize key information in form a list of bullet points highlighting actions, deadlines, and decisions.
DETAILED: Produce a comprehensive summary covering context, important details, and next steps in a paragraph of up to 100 words.`
