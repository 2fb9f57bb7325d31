package script

import "github.com/dialgraph/callflow/pkg/domain"

// IndustryTemplate is an unrendered script family. Stage messages and legacy
// components carry {variable} placeholders that each campaign fills in.
type IndustryTemplate struct {
	Name              string
	Flow              map[string]*domain.Stage
	Legacy            *domain.LegacyScript
	FallbackResponses []string
}

var genericFallbacks = []string{
	"I'm sorry, I didn't quite catch that. Could you please repeat?",
	"I didn't understand. Could you say that again?",
	"Would you mind rephrasing that?",
}

// builtinIndustries returns the template families shipped with the engine.
func builtinIndustries() map[string]*IndustryTemplate {
	return map[string]*IndustryTemplate{
		"real_estate": {
			Name: "Real Estate Lead Generation",
			Flow: map[string]*domain.Stage{
				"greeting": {
					Message: "Hi there! <break time='300ms'/> This is {agent_name} from {company_name}. We've been helping homeowners in your neighborhood sell their properties for top dollar. {custom_opening_question}",
					Rules: []domain.ResponseRule{
						{
							Name:      "positive",
							Patterns:  []string{"yes", "yeah", "sure", "thinking about it", "considering", "possibly", "maybe"},
							NextStage: "timeframe",
						},
						{
							Name:      "negative",
							Patterns:  []string{"no", "not interested", "no thanks", "not selling", "not now"},
							NextStage: "objection_handling",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "clarify"},
				},
				"timeframe": {
					Message: "Great! Do you have a specific timeframe in mind for selling?",
					Rules: []domain.ResponseRule{
						{
							Name:      "soon",
							Patterns:  []string{"now", "soon", "right away", "this month", "next month", "couple months"},
							NextStage: "property_details",
						},
						{
							Name:      "later",
							Patterns:  []string{"later", "not sure", "next year", "future", "thinking about it"},
							NextStage: "property_details",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "property_details"},
				},
				"property_details": {
					Message: "Can you tell me a bit about your property? How many bedrooms and bathrooms?",
					Rules: []domain.ResponseRule{
						{
							Name:     "property_info",
							Patterns: []string{"bedroom", "bathroom", "bed", "bath"},
							ExtractInfo: map[string]string{
								"bedrooms":  `\b(\d+)\s*(?:bed|bedroom|br)s?\b`,
								"bathrooms": `\b(\d+(?:\.\d+)?)\s*(?:bath|bathroom|ba)s?\b`,
							},
							NextStage: "estimate",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "estimate"},
				},
				"estimate": {
					Message: "Based on properties in your area, your home might be worth between $300,000 and $350,000. Would you like to schedule a professional valuation?",
					Rules: []domain.ResponseRule{
						{
							Name:      "yes",
							Patterns:  []string{"yes", "sure", "okay", "interested"},
							NextStage: "schedule",
						},
						{
							Name:      "no",
							Patterns:  []string{"no", "not now", "later", "think about it"},
							NextStage: "close",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "close"},
				},
				"schedule": {
					Message: "Great! When would be a good time for our agent to call you?",
					Rules: []domain.ResponseRule{
						{
							Name:     "time",
							Patterns: []string{"monday", "tuesday", "wednesday", "thursday", "friday", "weekend", "morning", "afternoon", "evening"},
							ExtractInfo: map[string]string{
								"appointment_time": `(morning|afternoon|evening|monday|tuesday|wednesday|thursday|friday|saturday|sunday)`,
							},
							NextStage: "confirm",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "confirm"},
				},
				"confirm": {
					Message: "Perfect! We'll have an agent call you to confirm the {appointment_time} appointment. Thank you for your time!",
					EndCall: true,
				},
				"objection_handling": {
					Message: "I understand. Many homeowners are curious about their property's value even if they're not ready to sell. Would you like to know what your home is worth anyway?",
					Rules: []domain.ResponseRule{
						{
							Name:      "yes",
							Patterns:  []string{"yes", "okay", "sure", "curious"},
							NextStage: "property_details",
						},
						{
							Name:      "no",
							Patterns:  []string{"no", "not interested", "no thanks"},
							NextStage: "close",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "close"},
				},
				"clarify": {
					Message: "I'm sorry if I wasn't clear. I was asking if you've thought about selling your home in the near future?",
					Rules: []domain.ResponseRule{
						{
							Name:      "yes",
							Patterns:  []string{"yes", "yeah", "sure", "thinking about it"},
							NextStage: "timeframe",
						},
						{
							Name:      "no",
							Patterns:  []string{"no", "not interested", "no thanks"},
							NextStage: "objection_handling",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "objection_handling"},
				},
				"close": {
					Message: "Thank you for your time. Have a great day!",
					EndCall: true,
				},
			},
			Legacy: &domain.LegacyScript{
				Greeting: "Hi there! This is {agent_name} from {company_name}. We've been helping homeowners just like you sell their properties for top dollar. {custom_opening_question}",
				MoreInfo: "I'm glad to hear that. What makes our approach different is {unique_value_prop}. Would you like to receive more information about {offer_type}?",
				Closing:  "Perfect! {follow_up_action}. Thanks for your time today, and we look forward to {next_steps}.",
				Fallback: "I didn't catch that. Thank you for your time today. Feel free to reach out if you have any questions in the future.",
			},
			FallbackResponses: genericFallbacks,
		},

		"mortgage": {
			Name: "Mortgage Service",
			Flow: map[string]*domain.Stage{
				"greeting": {
					Message: "Hello, this is {agent_name} from {company_name}. <break time='300ms'/> With interest rates at {interest_rate_descriptor}, many homeowners in your area are saving {savings_amount} each month by refinancing. {custom_opening_question}",
					Rules: []domain.ResponseRule{
						{
							Name:      "interested",
							Patterns:  []string{"yes", "yeah", "sure", "okay", "tell me more", "interested"},
							NextStage: "options",
						},
						{
							Name:      "not_interested",
							Patterns:  []string{"no", "not interested", "no thanks", "stop calling"},
							NextStage: "close",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "options"},
				},
				"options": {
					Message: "Great! We're currently offering {promotion_details}. To find the best fit, roughly what interest rate are you paying today?",
					Rules: []domain.ResponseRule{
						{
							Name:     "rate",
							Patterns: []string{"percent", "%", "point", "rate", "interest"},
							ExtractInfo: map[string]string{
								"current_rate": `\b(\d+(?:\.\d+)?)\s*(?:%|percent)\b`,
							},
							NextStage: "schedule",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "schedule"},
				},
				"schedule": {
					Message: "Thanks! One of our advisors can walk you through your savings. Would a morning or an afternoon call work better?",
					Rules: []domain.ResponseRule{
						{
							Name:     "time",
							Patterns: []string{"morning", "afternoon", "evening", "monday", "tuesday", "wednesday", "thursday", "friday"},
							ExtractInfo: map[string]string{
								"callback_time": `(morning|afternoon|evening|monday|tuesday|wednesday|thursday|friday)`,
							},
							NextStage: "confirm",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "confirm"},
				},
				"confirm": {
					Message: "Excellent! An advisor will call you in the {callback_time}. Thank you for your time, and we look forward to {next_steps}!",
					EndCall: true,
				},
				"close": {
					Message: "I understand. Thank you for your time. If your situation changes, please don't hesitate to contact us. Have a great day!",
					EndCall: true,
				},
			},
			Legacy: &domain.LegacyScript{
				Greeting: "Hello, this is {agent_name} from {company_name}. With interest rates at {interest_rate_descriptor}, you might qualify for significant savings on your mortgage. {custom_opening_question}",
				MoreInfo: "Great! We're currently offering {promotion_details}. Many of our clients are {client_benefit}. Would you like to hear more about the options that might work best for you?",
				Closing:  "Excellent! {follow_up_action}. Thank you for your time, and we look forward to {next_steps}!",
				Fallback: "I apologize for the confusion. Thank you for your time today. If you'd like to learn more about our options, please call our office directly. Have a great day!",
			},
			FallbackResponses: genericFallbacks,
		},

		"landscaping": {
			Name: "Landscaping Services",
			Flow: map[string]*domain.Stage{
				"greeting": {
					Message: "Hello! This is {agent_name} from {company_name}. With {season} approaching, we're offering {promotion_details} in your neighborhood. {custom_opening_question}",
					Rules: []domain.ResponseRule{
						{
							Name:      "interested",
							Patterns:  []string{"yes", "yeah", "sure", "sounds good", "tell me more"},
							NextStage: "services",
						},
						{
							Name:      "not_interested",
							Patterns:  []string{"no", "not interested", "no thanks"},
							NextStage: "close",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "services"},
				},
				"services": {
					Message: "Our team specializes in {service_types} and we're offering {offer_details}. Would you like to schedule a free consultation?",
					Rules: []domain.ResponseRule{
						{
							Name:      "yes",
							Patterns:  []string{"yes", "sure", "okay", "schedule", "consultation"},
							NextStage: "schedule",
						},
						{
							Name:      "no",
							Patterns:  []string{"no", "not now", "maybe later"},
							NextStage: "close",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "schedule"},
				},
				"schedule": {
					Message: "Is there a particular day that works best for you?",
					Rules: []domain.ResponseRule{
						{
							Name:     "day",
							Patterns: []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday", "weekend"},
							ExtractInfo: map[string]string{
								"visit_day": `(monday|tuesday|wednesday|thursday|friday|saturday|sunday|weekend)`,
							},
							NextStage: "confirm",
						},
					},
					Fallback: &domain.ResponseRule{Name: "fallback", NextStage: "confirm"},
				},
				"confirm": {
					Message: "Wonderful! We'll have a specialist visit on {visit_day}. {follow_up_action}. Have a great day!",
					EndCall: true,
				},
				"close": {
					Message: "No problem at all. Thank you for your time. If you change your mind about enhancing your outdoor space, don't hesitate to reach out. Have a great day!",
					EndCall: true,
				},
			},
			Legacy: &domain.LegacyScript{
				Greeting: "Hello! This is {agent_name} from {company_name}. With {season} approaching, we're offering {promotion_details} in your neighborhood. {custom_opening_question}",
				MoreInfo: "Great to hear! Our team specializes in {service_types} and we're offering {offer_details}. Would you like to schedule a free consultation?",
				Closing:  "Excellent! {follow_up_action}. We look forward to {next_steps}!",
				Fallback: "I apologize for the confusion. Thank you for your time today. If you'd like to learn more about our landscaping services, please contact our office directly. Have a great day!",
			},
			FallbackResponses: genericFallbacks,
		},
	}
}

// builtinCampaigns returns the seed campaign catalog.
func builtinCampaigns() []Campaign {
	return []Campaign{
		{
			ID:       "campaign_001",
			Name:     "Premier Real Estate Lead Generation",
			Industry: "real_estate",
			Variables: map[string]string{
				"agent_name":              "Matthew from Premier Real Estate",
				"company_name":            "Premier Real Estate",
				"custom_opening_question": "I was wondering - have you thought about selling your home in the near future?",
				"unique_value_prop":       "our team of local market experts who've helped sellers in your area get an average of 5% above market value",
				"offer_type":              "recent sales in your neighborhood",
				"follow_up_action":        "I'll have our team send over our market report with recent sales in your area",
				"next_steps":              "helping you make an informed decision about your home",
			},
		},
		{
			ID:       "campaign_002",
			Name:     "First Choice Mortgage Refinance",
			Industry: "mortgage",
			Variables: map[string]string{
				"agent_name":               "Sarah",
				"company_name":             "First Choice Mortgage",
				"interest_rate_descriptor": "historic lows",
				"savings_amount":           "hundreds",
				"custom_opening_question":  "Would you be interested in learning what options are available to you?",
				"promotion_details":        "no-cost refinance options with rates starting at just 3.2% APR",
				"client_benefit":           "reducing their monthly payments by $200 to $400",
				"follow_up_action":         "I'll have one of our mortgage advisors give you a call within the next 24 hours",
				"next_steps":               "helping you save on your mortgage",
			},
		},
		{
			ID:       "campaign_003",
			Name:     "Green Gardens Spring Services",
			Industry: "landscaping",
			Variables: map[string]string{
				"agent_name":              "Michael",
				"company_name":            "Green Gardens Landscaping",
				"season":                  "spring",
				"promotion_details":       "special deals on landscaping services",
				"custom_opening_question": "Have you been thinking about upgrading your outdoor space this season?",
				"service_types":           "lawn renovation, garden design, and outdoor living spaces",
				"offer_details":           "a 15% discount for first-time customers",
				"follow_up_action":        "We'll send you some design ideas before the visit",
				"next_steps":              "discuss your landscaping vision",
			},
		},
	}
}
