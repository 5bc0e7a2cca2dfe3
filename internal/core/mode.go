package core

type Mode int

const (
	ModeDevelopment Mode = iota
	ModeProduction
)

func (m Mode) String() string {
	if m == ModeProduction {
		return "production"
	}
	return "development"
}

func (m Mode) IsProduction() bool {
	return m == ModeProduction
}
