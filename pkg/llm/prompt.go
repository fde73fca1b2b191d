package llm

import "strings"

// Persona describes the agent identity substituted into the system prompt.
type Persona struct {
	AgentName string `mapstructure:"agent_name"`
	Company   string `mapstructure:"company"`
	Goal      string `mapstructure:"goal"`
}

func (p Persona) withDefaults() Persona {
	if p.AgentName == "" {
		p.AgentName = "Maya"
	}
	if p.Company == "" {
		p.Company = "Voxline"
	}
	if p.Goal == "" {
		p.Goal = "answer the caller's questions and qualify their interest"
	}
	return p
}

const systemPromptTemplate = `You are {agent_name}, a voice agent calling on behalf of {company}.
Your goal: {goal}.
You are on a live phone call. Reply in {language}. Keep every reply short and conversational.

Respond with only a JSON object, no prose around it:
{"speak": "<what to say, one or two short sentences>", "action": "<continue|end_call|other>", "extracted": {"<field>": "<value>"}, "score": <0.0-1.0 lead quality>}

Use action "end_call" only when the conversation has clearly concluded or the caller asks to stop.`

// SystemPrompt renders the persona template for one call's language.
func SystemPrompt(p Persona, language string) string {
	p = p.withDefaults()
	if strings.TrimSpace(language) == "" {
		language = "en"
	}
	r := strings.NewReplacer(
		"{agent_name}", p.AgentName,
		"{company}", p.Company,
		"{goal}", p.Goal,
		"{language}", language,
	)
	return r.Replace(systemPromptTemplate)
}

// cleanJSON strips code fences and surrounding prose so a lenient parse can
// find the reply object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return text
	}
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
