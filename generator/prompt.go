package generator

import "strings"

// BodySeparator joins example bodies inside the prompt
const BodySeparator = "\n\n"

const promptTemplate = `You are an expert TypeScript developer specialized in building webhook handlers with input validation.

You will receive the raw JSON bodies of several webhook examples. Each body represents a possible event that can be received by a webhook endpoint.

Your task is to generate a complete, production-ready TypeScript code that can handle all these webhook events.

The output must include:

1. A zod schema for each distinct webhook event type.
2. A discriminated union type for all events.
3. A handler function called handleWebhookEvent(event: WebhookEvent) that processes each type.
4. Return only the TypeScript code.

Here are the webhook examples payloads:

%EXAMPLES%

Return only the code and do not return ''' typescript or any other markdown symbols, do not include any other text or introduction before or after the code.`

// BuildPrompt embeds the example bodies in the handler instructions.
// No bodies still yields a full prompt with an empty examples section.
func BuildPrompt(bodies []string) string {
	return strings.Replace(promptTemplate, "%EXAMPLES%", strings.Join(bodies, BodySeparator), 1)
}
