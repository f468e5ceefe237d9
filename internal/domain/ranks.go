package domain

import "math"

// Tier описывает ранг в фиксированной лестнице. Ранг присваивается, только
// если выполнены оба порога: и по очкам, и по стрику.
type Tier struct {
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
	MinStreak int    `json:"min_streak"`
	Desc      string `json:"desc"`
}

// Ladder — лестница из семи рангов в порядке возрастания порогов.
var Ladder = []Tier{
	{Name: "Newbie", MinPoints: 0, MinStreak: 0, Desc: "Just getting started"},
	{Name: "Rookie", MinPoints: 75, MinStreak: 3, Desc: "Making your mark"},
	{Name: "Pro", MinPoints: 200, MinStreak: 10, Desc: "Consistent and accurate"},
	{Name: "Elite", MinPoints: 500, MinStreak: 21, Desc: "Among the best"},
	{Name: "Master", MinPoints: 1000, MinStreak: 45, Desc: "Commanding the table"},
	{Name: "Legend", MinPoints: 2000, MinStreak: 90, Desc: "The stuff of folklore"},
	{Name: "Icon", MinPoints: 4000, MinStreak: 180, Desc: "Untouchable. Absolute."},
}

// TierOf возвращает старший ранг, оба порога которого выполнены.
// Лестница сканируется по возрастанию: высокие очки при коротком стрике
// оставляют пользователя на младшем ранге.
func TierOf(points, streak int) Tier {
	tier := Ladder[0]
	for _, t := range Ladder {
		if points >= t.MinPoints && streak >= t.MinStreak {
			tier = t
		}
	}
	return tier
}

// NextTier возвращает первый недостигнутый ранг. nil — достигнут максимум.
func NextTier(points, streak int) *Tier {
	for i := range Ladder {
		if points < Ladder[i].MinPoints || streak < Ladder[i].MinStreak {
			next := Ladder[i]
			return &next
		}
	}
	return nil
}

// Progress возвращает процент прогресса до следующего ранга (0..100):
// минимум из прогресса по очкам и по стрику, каждый обрезан сверху до 100.
func Progress(points, streak int, next *Tier) int {
	if next == nil {
		return 100
	}
	pointsProg := 100.0
	if next.MinPoints > 0 {
		pointsProg = math.Min(float64(points)/float64(next.MinPoints)*100, 100)
	}
	streakProg := 100.0
	if next.MinStreak > 0 {
		streakProg = math.Min(float64(streak)/float64(next.MinStreak)*100, 100)
	}
	return int(math.Floor(math.Min(pointsProg, streakProg)))
}
