// Package keywords detects known technical and soft-skill terms in resume text.
package keywords

// defaultVocabulary is the process-wide list of recognized terms. Entries are
// lowercase; a few appear twice and the matcher reports them once.
var defaultVocabulary = []string{
	// Programming languages
	"python", "javascript", "java", "c++", "c#", "php", "ruby", "go", "rust", "swift",
	"typescript", "html", "css", "sql", "r", "matlab", "kotlin", "dart",

	// Frameworks and libraries
	"react", "angular", "vue", "node", "django", "flask", "express", "spring",
	"laravel", "rails", "tensorflow", "pytorch", "keras", "scikit-learn",
	"numpy", "pandas", "docker", "kubernetes", "aws", "azure", "gcp",

	// Tools and technologies
	"git", "jenkins", "ansible", "terraform", "jenkins", "docker",
	"postgresql", "mysql", "mongodb", "redis", "firebase",
	"figma", "adobe", "photoshop", "illustrator",

	// Engineering and EV
	"solidworks", "autocad", "matlab", "simulink", "ansys", "catia",
	"finite element", "cfd", "cad", "cam", "ev", "electric vehicle",
	"battery", "bms", "motor controller", "powertrain",

	// Soft skills
	"leadership", "teamwork", "communication", "problem solving",
	"project management", "agile", "scrum", "kanban",
}

// DefaultVocabulary returns a copy of the built-in vocabulary.
func DefaultVocabulary() []string {
	out := make([]string, len(defaultVocabulary))
	copy(out, defaultVocabulary)
	return out
}
