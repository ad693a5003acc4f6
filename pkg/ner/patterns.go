package ner

// Per-language pattern data for the deterministic taggers. The gazetteers
// are deliberately small: they anchor the baseline so the LLM enrichment
// stage has trusted entities to build on, they do not aim for recall.

type languageData struct {
	honorifics  []string
	orgSuffixes []string
	months      []string
	// stop set for capitalized sentence starters that are never names.
	capStop map[string]struct{}
}

var languages = map[string]languageData{
	"en": {
		honorifics:  []string{"Mr.", "Mrs.", "Ms.", "Dr.", "Prof.", "Sir", "President", "CEO", "Senator"},
		orgSuffixes: []string{"Inc", "Inc.", "Corp", "Corp.", "Corporation", "Ltd", "Ltd.", "LLC", "PLC", "Co.", "Company", "Group", "Foundation", "University", "Institute", "Labs"},
		months:      []string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		capStop:     capSet("The", "A", "An", "This", "That", "These", "Those", "It", "He", "She", "They", "We", "You", "But", "And", "Or", "If", "When", "While", "After", "Before", "In", "On", "At", "For", "With", "From", "However", "Although"),
	},
	"de": {
		honorifics:  []string{"Herr", "Frau", "Dr.", "Prof.", "Präsident"},
		orgSuffixes: []string{"GmbH", "AG", "SE", "KG", "e.V.", "Universität", "Institut", "Konzern", "Gruppe"},
		months:      []string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		capStop:     capSet("Der", "Die", "Das", "Ein", "Eine", "Es", "Er", "Sie", "Wir", "Ihr", "Aber", "Und", "Oder", "Wenn", "Nach", "Vor", "Mit", "Von", "Im", "Am"),
	},
	"fr": {
		honorifics:  []string{"M.", "Mme", "Mlle", "Dr", "Pr", "Président"},
		orgSuffixes: []string{"SA", "SAS", "SARL", "SE", "Université", "Institut", "Groupe", "Compagnie"},
		months:      []string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		capStop:     capSet("Le", "La", "Les", "Un", "Une", "Des", "Il", "Elle", "Ils", "Elles", "Nous", "Vous", "Mais", "Et", "Ou", "Si", "Quand", "Après", "Avant", "Dans", "Sur", "Avec", "De"),
	},
	"es": {
		honorifics:  []string{"Sr.", "Sra.", "Srta.", "Dr.", "Dra.", "Prof.", "Presidente"},
		orgSuffixes: []string{"SA", "SL", "SRL", "Universidad", "Instituto", "Grupo", "Compañía"},
		months:      []string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		capStop:     capSet("El", "La", "Los", "Las", "Un", "Una", "Unos", "Unas", "Él", "Ella", "Ellos", "Ellas", "Nosotros", "Pero", "Y", "O", "Si", "Cuando", "Después", "Antes", "En", "Sobre", "Con", "De"),
	},
}

func capSet(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// orgGazetteer lists organizations the baseline recognizes without
// structural cues. Shared across languages.
var orgGazetteer = []string{
	"Microsoft", "Google", "Alphabet", "Apple", "Amazon", "Meta", "Facebook",
	"OpenAI", "Anthropic", "DeepMind", "Netflix", "Tesla", "SpaceX", "IBM",
	"Intel", "AMD", "NVIDIA", "Oracle", "Salesforce", "Adobe", "GitHub",
	"GitLab", "LinkedIn", "Twitter", "YouTube", "Samsung", "Sony", "Siemens",
	"Volkswagen", "BMW", "Airbus", "Boeing", "NASA", "ESA", "CERN", "MIT",
	"Stanford", "Harvard", "Oxford", "Cambridge", "UNESCO", "WHO", "NATO",
	"European Union", "United Nations", "World Bank",
}

// locationGazetteer lists cities, regions, and countries.
var locationGazetteer = []string{
	"Albuquerque", "New York", "San Francisco", "Seattle", "Redmond",
	"Los Angeles", "Chicago", "Boston", "Austin", "London", "Paris",
	"Berlin", "Munich", "Hamburg", "Madrid", "Barcelona", "Rome", "Milan",
	"Amsterdam", "Brussels", "Vienna", "Zurich", "Geneva", "Dublin",
	"Stockholm", "Oslo", "Copenhagen", "Helsinki", "Warsaw", "Prague",
	"Tokyo", "Osaka", "Seoul", "Beijing", "Shanghai", "Shenzhen",
	"Singapore", "Sydney", "Melbourne", "Toronto", "Vancouver", "Montreal",
	"United States", "Germany", "France", "Spain", "Italy", "Japan",
	"China", "India", "Brazil", "Canada", "Australia", "United Kingdom",
	"Netherlands", "Switzerland", "Austria", "Sweden", "Norway", "Mexico",
	"Silicon Valley", "Europe", "Asia", "Africa", "North America",
	"South America",
}

// productGazetteer lists products the baseline recognizes.
var productGazetteer = []string{
	"Windows", "Office", "Excel", "Word", "Azure", "iPhone", "iPad",
	"Android", "Chrome", "Firefox", "Linux", "Kubernetes", "Docker",
	"PostgreSQL", "Redis", "Kafka",
}

// firstNames anchors the capitalized-bigram person rule.
var firstNames = []string{
	"Bill", "Paul", "Steve", "Tim", "Satya", "Sundar", "Larry", "Sergey",
	"Mark", "Jeff", "Elon", "Sam", "John", "Jane", "Mary", "James",
	"Robert", "Michael", "William", "David", "Richard", "Thomas", "Linus",
	"Grace", "Alan", "Ada", "Margaret", "Barbara", "Susan", "Karen",
	"Hans", "Werner", "Klaus", "Angela", "Jürgen", "Pierre", "Jean",
	"Marie", "Claude", "François", "Juan", "Carlos", "María", "José",
	"Ana", "Luis", "Pablo", "Diego", "Sofia", "Lucia",
}
