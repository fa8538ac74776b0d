package types

// SpeciesInfo is static reference data about a species (a row of infos_especes).
type SpeciesInfo struct {
	Species     string `json:"espece" db:"espece"`
	LatinName   string `json:"nom_latin" db:"nom_latin"`
	Family      string `json:"famille" db:"famille"`
	Region      string `json:"region" db:"region"`
	Habitat     string `json:"habitat" db:"habitat"`
	FunFact     string `json:"fun_fact" db:"fun_fact"`
	Description string `json:"description" db:"description"`
}
