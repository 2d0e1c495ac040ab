package playbook

// Playbook pairs a support topic with the canned reply the agent side sends
// when no live agent or language model is available.
type Playbook struct {
	ID       string   `json:"id"`
	Topic    string   `json:"topic"`
	Keywords []string `json:"keywords,omitempty"`
	Reply    string   `json:"reply"`
}

// Seed provides the default reply set the product ships with.
func Seed() []Playbook {
	return []Playbook{
		{
			ID:    "greeting",
			Topic: "greeting",
			Keywords: []string{
				"hi", "hello", "hey", "good morning", "good afternoon", "howdy",
			},
			Reply: "Hi there! I'm the LeadPilot assistant. Ask me anything about campaigns, pricing, or connecting your CRM.",
		},
		{
			ID:    "pricing",
			Topic: "pricing",
			Keywords: []string{
				"price", "pricing", "cost", "plan", "plans", "subscription", "trial",
				"how much", "upgrade", "downgrade", "discount",
			},
			Reply: "Our Starter plan begins at $29/month and every paid plan starts with a 14-day free trial. The pricing page has a full feature comparison.",
		},
		{
			ID:    "integrations",
			Topic: "integrations",
			Keywords: []string{
				"integration", "integrations", "crm", "connector", "salesforce",
				"hubspot", "pipedrive", "zapier", "api", "webhook", "connect",
			},
			Reply: "We connect natively to Salesforce, HubSpot and Pipedrive, and anything else through Zapier or our REST API. The marketplace page lists every connector.",
		},
		{
			ID:    "onboarding",
			Topic: "onboarding",
			Keywords: []string{
				"start", "getting started", "setup", "set up", "onboard", "import",
				"campaign", "first campaign", "demo", "book", "walkthrough",
			},
			Reply: "The fastest way in is the guided setup: import your contacts, pick a campaign template, and you're sending within ten minutes. Want me to book a walkthrough with our team?",
		},
		{
			ID:    "billing",
			Topic: "billing",
			Keywords: []string{
				"invoice", "billing", "receipt", "charge", "charged", "refund",
				"payment", "card", "cancel",
			},
			Reply: "Billing questions are best handled by a human, so I've flagged this conversation for our billing team. You'll also find invoices under Settings > Billing.",
		},
		{
			ID:    "trouble",
			Topic: "trouble",
			Keywords: []string{
				"bug", "broken", "error", "fail", "failed", "not working", "issue",
				"problem", "crash", "slow", "stuck",
			},
			Reply: "Sorry about that! Could you share what you were doing when it happened? I'll route the details straight to our support engineers.",
		},
		{
			ID:    "fallback",
			Topic: "fallback",
			Reply: "Thanks for reaching out! A teammate will follow up shortly. In the meantime, is there anything specific about LeadPilot I can help with?",
		},
	}
}
