package domain

import "sort"

// Club описывает клуб из фиксированного каталога.
type Club struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

var clubs = map[string]Club{
	"t3":  {ID: "t3", Name: "Arsenal", Color: "#EF0107"},
	"t7":  {ID: "t7", Name: "Aston Villa", Color: "#95BFE5"},
	"t91": {ID: "t91", Name: "Bournemouth", Color: "#DA291C"},
	"t94": {ID: "t94", Name: "Brentford", Color: "#e30613"},
	"t36": {ID: "t36", Name: "Brighton", Color: "#0057B8"},
	"t8":  {ID: "t8", Name: "Chelsea", Color: "#034694"},
	"t31": {ID: "t31", Name: "Crystal Palace", Color: "#1B458F"},
	"t11": {ID: "t11", Name: "Everton", Color: "#003399"},
	"t54": {ID: "t54", Name: "Fulham", Color: "#CC0000"},
	"t40": {ID: "t40", Name: "Ipswich", Color: "#0044A9"},
	"t13": {ID: "t13", Name: "Leicester", Color: "#003090"},
	"t14": {ID: "t14", Name: "Liverpool", Color: "#C8102E"},
	"t43": {ID: "t43", Name: "Man City", Color: "#6CABDD"},
	"t1":  {ID: "t1", Name: "Man Utd", Color: "#DA291C"},
	"t4":  {ID: "t4", Name: "Newcastle", Color: "#241F20"},
	"t17": {ID: "t17", Name: "Nottm Forest", Color: "#DD0000"},
	"t20": {ID: "t20", Name: "Southampton", Color: "#D71920"},
	"t6":  {ID: "t6", Name: "Spurs", Color: "#132257"},
	"t21": {ID: "t21", Name: "West Ham", Color: "#7A263A"},
	"t39": {ID: "t39", Name: "Wolves", Color: "#FDB913"},
}

// ClubByID возвращает клуб каталога.
func ClubByID(id string) (Club, bool) {
	club, ok := clubs[id]
	return club, ok
}

// Clubs возвращает каталог в алфавитном порядке названий.
func Clubs() []Club {
	list := make([]Club, 0, len(clubs))
	for _, club := range clubs {
		list = append(list, club)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
