package reward

import "solo-rising/internal/model"

func points(name, desc, icon string, v int64) model.Reward {
	return model.Reward{Category: CategoryAchievement, Name: name, Description: desc, Icon: icon, Requirement: RequirementPoints, RequirementValue: v}
}

func workouts(name, desc, icon string, v int64) model.Reward {
	return model.Reward{Category: CategoryAchievement, Name: name, Description: desc, Icon: icon, Requirement: RequirementWorkouts, RequirementValue: v}
}

func streakBadge(name, desc, icon string, v int64) model.Reward {
	return model.Reward{Category: CategoryBadge, Name: name, Description: desc, Icon: icon, Requirement: RequirementStreak, RequirementValue: v}
}

// DefaultCatalog is seeded into the rewards table on startup.
var DefaultCatalog = []model.Reward{
	workouts("First Quest", "Log your first workout", "🗡️", 1),
	workouts("Daily Grinder", "Log 10 workouts", "⚙️", 10),
	workouts("Dungeon Regular", "Log 50 workouts", "🏰", 50),
	workouts("Centurion", "Log 100 workouts", "💯", 100),

	points("E-Rank Hunter", "Earn 50 points", "🥉", 50),
	points("D-Rank Hunter", "Earn 100 points", "🥈", 100),
	points("C-Rank Hunter", "Earn 250 points", "🥇", 250),
	points("B-Rank Hunter", "Earn 500 points", "🎖️", 500),
	points("A-Rank Hunter", "Earn 1000 points", "🏅", 1000),
	points("S-Rank Hunter", "Earn 2500 points", "👑", 2500),
	points("National Level", "Earn 5000 points", "🌏", 5000),
	points("Monarch", "Earn 10000 points", "🌑", 10000),

	streakBadge("Warming Up", "Train 3 days in a row", "🔥", 3),
	streakBadge("One Week Strong", "Train 7 days in a row", "📅", 7),
	streakBadge("Fortnight Fighter", "Train 14 days in a row", "⚡", 14),
	streakBadge("Limit Breaker", "Train 30 days in a row", "💥", 30),
	streakBadge("One Punch", "Train 100 days in a row", "👊", 100),
}
