package genres

// Translation tables for the common FictionBook genre codes. Codes missing
// from a locale fall back to English, then to the code itself, so freeform
// subjects from EPUB and MOBI files pass through untouched.
var translations = map[string]map[string]string{
	"en": {
		"sf":             "Science Fiction",
		"sf_fantasy":     "Fantasy",
		"sf_social":      "Social Science Fiction",
		"sf_space":       "Space Opera",
		"sf_horror":      "Horror",
		"det_classic":    "Classic Detective",
		"det_police":     "Police Procedural",
		"det_irony":      "Ironic Detective",
		"detective":      "Detective",
		"thriller":       "Thriller",
		"prose_classic":  "Classic Prose",
		"prose_contemporary": "Contemporary Prose",
		"prose_history":  "Historical Prose",
		"love_contemporary": "Contemporary Romance",
		"love_history":   "Historical Romance",
		"adv_history":    "Historical Adventure",
		"adv_western":    "Western",
		"adventure":      "Adventure",
		"child_tale":     "Fairy Tale",
		"child_verse":    "Children's Verse",
		"child_prose":    "Children's Prose",
		"children":       "Children's Literature",
		"poetry":         "Poetry",
		"dramaturgy":     "Drama",
		"antique":        "Antique Literature",
		"sci_history":    "History",
		"sci_philosophy": "Philosophy",
		"sci_psychology": "Psychology",
		"science":        "Science",
		"comp_programming": "Programming",
		"computers":      "Computers",
		"ref_encyc":      "Encyclopedia",
		"reference":      "Reference",
		"nonf_biography": "Biography",
		"nonf_publicism": "Publicism",
		"nonfiction":     "Nonfiction",
		"religion":       "Religion",
		"humor":          "Humor",
		"home_cooking":   "Cooking",
		"home":           "Home and Family",
	},
	"ru": {
		"sf":             "Научная фантастика",
		"sf_fantasy":     "Фэнтези",
		"sf_social":      "Социальная фантастика",
		"sf_space":       "Космическая фантастика",
		"sf_horror":      "Ужасы",
		"det_classic":    "Классический детектив",
		"det_police":     "Полицейский детектив",
		"det_irony":      "Иронический детектив",
		"detective":      "Детектив",
		"thriller":       "Триллер",
		"prose_classic":  "Классическая проза",
		"prose_contemporary": "Современная проза",
		"prose_history":  "Историческая проза",
		"love_contemporary": "Современный любовный роман",
		"love_history":   "Исторический любовный роман",
		"adv_history":    "Исторические приключения",
		"adv_western":    "Вестерн",
		"adventure":      "Приключения",
		"child_tale":     "Сказка",
		"child_verse":    "Детские стихи",
		"child_prose":    "Детская проза",
		"children":       "Детская литература",
		"poetry":         "Поэзия",
		"dramaturgy":     "Драматургия",
		"antique":        "Старинная литература",
		"sci_history":    "История",
		"sci_philosophy": "Философия",
		"sci_psychology": "Психология",
		"science":        "Наука",
		"comp_programming": "Программирование",
		"computers":      "Компьютеры",
		"ref_encyc":      "Энциклопедия",
		"reference":      "Справочная литература",
		"nonf_biography": "Биография",
		"nonf_publicism": "Публицистика",
		"nonfiction":     "Документальная литература",
		"religion":       "Религия",
		"humor":          "Юмор",
		"home_cooking":   "Кулинария",
		"home":           "Дом и семья",
	},
}

// Translate resolves a genre code to a display name for a locale.
func Translate(code, locale string) string {
	if table, ok := translations[locale]; ok {
		if name, ok := table[code]; ok {
			return name
		}
	}
	if locale != "en" {
		if name, ok := translations["en"][code]; ok {
			return name
		}
	}
	return code
}
