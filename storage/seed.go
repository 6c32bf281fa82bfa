package storage

// seedData holds the fixed default content written to reference collections
// the first time their file is created. Collections absent from this map
// start out as empty arrays.
var seedData = map[string][]Record{
	Industries: {
		{"industry_id": 1, "industry_name": "Technology"},
		{"industry_id": 2, "industry_name": "Healthcare"},
		{"industry_id": 3, "industry_name": "Finance"},
		{"industry_id": 4, "industry_name": "E-commerce"},
		{"industry_id": 5, "industry_name": "Education"},
		{"industry_id": 6, "industry_name": "Real Estate"},
		{"industry_id": 7, "industry_name": "Energy"},
		{"industry_id": 8, "industry_name": "Transportation"},
		{"industry_id": 9, "industry_name": "Food & Beverage"},
		{"industry_id": 10, "industry_name": "Entertainment"},
	},
	FundingStages: {
		{"stage_id": 1, "stage_name": "Pre-Seed"},
		{"stage_id": 2, "stage_name": "Seed"},
		{"stage_id": 3, "stage_name": "Series A"},
		{"stage_id": 4, "stage_name": "Series B"},
		{"stage_id": 5, "stage_name": "Series C+"},
		{"stage_id": 6, "stage_name": "Growth"},
	},
	Badges: {
		{"badge_id": 1, "badge_name": "Profile Complete", "badge_description": "Complete your profile 100%", "badge_icon": "fa-solid fa-user-check", "badge_category": "Profile", "points_value": 50, "rule_criteria": `{"profile_completion": 100}`},
		{"badge_id": 2, "badge_name": "Active Investor", "badge_description": "View more than 50 startup pitches", "badge_icon": "fa-solid fa-fire", "badge_category": "Engagement", "points_value": 100, "rule_criteria": `{"videos_viewed": 50, "role": "Investor"}`},
		{"badge_id": 3, "badge_name": "Active Startup", "badge_description": "Upload your first pitch video", "badge_icon": "fa-solid fa-video", "badge_category": "Content", "points_value": 75, "rule_criteria": `{"videos_uploaded": 1, "role": "Startup"}`},
		{"badge_id": 4, "badge_name": "Networker", "badge_description": "Save 10 or more matches", "badge_icon": "fa-solid fa-handshake", "badge_category": "Network", "points_value": 80, "rule_criteria": `{"matches_saved": 10}`},
		{"badge_id": 5, "badge_name": "Communicator", "badge_description": "Send 50 messages", "badge_icon": "fa-solid fa-comments", "badge_category": "Engagement", "points_value": 60, "rule_criteria": `{"messages_sent": 50}`},
	},
	ForumCategories: {
		{"category_id": 1, "category_name": "General Discussion", "category_slug": "general", "description": "General conversations about startups and investing", "icon": "fa-solid fa-comments", "display_order": 1, "is_active": true, "post_count": 0},
		{"category_id": 2, "category_name": "Fundraising Tips", "category_slug": "fundraising", "description": "Share and discuss fundraising strategies", "icon": "fa-solid fa-money-bill-trend-up", "display_order": 2, "is_active": true, "post_count": 0},
		{"category_id": 3, "category_name": "Investor Insights", "category_slug": "investor-insights", "description": "Investors share their perspectives", "icon": "fa-solid fa-lightbulb", "display_order": 3, "is_active": true, "post_count": 0},
		{"category_id": 4, "category_name": "Success Stories", "category_slug": "success-stories", "description": "Share your wins and milestones", "icon": "fa-solid fa-trophy", "display_order": 4, "is_active": true, "post_count": 0},
		{"category_id": 5, "category_name": "Platform Feedback", "category_slug": "feedback", "description": "Suggestions and bug reports for SWOT Link", "icon": "fa-solid fa-bug", "display_order": 5, "is_active": true, "post_count": 0},
	},
}
