package composer

// Unknown is the value of a field that no source could fill
const Unknown = ""

// Event identifies a life event category
type Event string

const (
	EventBirth Event = "birth"
	EventDeath Event = "death"
)

// Record holds the structured biography of one composer as extracted from a
// single source. Every field is either a matched value or Unknown.
type Record struct {
	Composer     string
	DateOfBirth  string
	BirthTown    string
	BirthCountry string
	DateOfDeath  string
	DeathTown    string
	DeathCountry string

	// GroupCountry is only filled by the musicalics source
	GroupCountry string
}

// NewRecord returns a record with every field unknown
func NewRecord(name string) Record {
	return Record{Composer: name}
}

// SetDate sets the year of the given event
func (r *Record) SetDate(event Event, year string) {
	switch event {
	case EventBirth:
		r.DateOfBirth = year
	case EventDeath:
		r.DateOfDeath = year
	}
}

// SetTown sets the town of the given event
func (r *Record) SetTown(event Event, town string) {
	switch event {
	case EventBirth:
		r.BirthTown = town
	case EventDeath:
		r.DeathTown = town
	}
}

// SetCountry sets the country of the given event
func (r *Record) SetCountry(event Event, country string) {
	switch event {
	case EventBirth:
		r.BirthCountry = country
	case EventDeath:
		r.DeathCountry = country
	}
}

// Date returns the year of the given event
func (r Record) Date(event Event) string {
	if event == EventDeath {
		return r.DateOfDeath
	}
	return r.DateOfBirth
}

// Town returns the town of the given event
func (r Record) Town(event Event) string {
	if event == EventDeath {
		return r.DeathTown
	}
	return r.BirthTown
}

// Country returns the country of the given event
func (r Record) Country(event Event) string {
	if event == EventDeath {
		return r.DeathCountry
	}
	return r.BirthCountry
}

// IsEmpty reports whether no field beyond the name was filled
func (r Record) IsEmpty() bool {
	return r.DateOfBirth == Unknown && r.BirthTown == Unknown && r.BirthCountry == Unknown &&
		r.DateOfDeath == Unknown && r.DeathTown == Unknown && r.DeathCountry == Unknown &&
		r.GroupCountry == Unknown
}

// Filled returns how many fields beyond the name hold a value
func (r Record) Filled() int {
	n := 0
	for _, v := range []string{r.DateOfBirth, r.BirthTown, r.BirthCountry,
		r.DateOfDeath, r.DeathTown, r.DeathCountry, r.GroupCountry} {
		if v != Unknown {
			n++
		}
	}
	return n
}

// Merged is a composer record whose fields were filled by source precedence,
// plus the derived nationality.
type Merged struct {
	Composer     string
	DateOfBirth  string
	BirthTown    string
	BirthCountry string
	DateOfDeath  string
	DeathTown    string
	DeathCountry string
	Nationality  string
}

// Columns is the column order of the merged composer CSV
var Columns = []string{
	"composer",
	"date_of_birth",
	"birth_town",
	"birth_country",
	"date_of_death",
	"death_town",
	"death_country",
	"nationality",
}

// Row returns the merged record in Columns order
func (m *Merged) Row() []string {
	return []string{
		m.Composer,
		m.DateOfBirth,
		m.BirthTown,
		m.BirthCountry,
		m.DateOfDeath,
		m.DeathTown,
		m.DeathCountry,
		m.Nationality,
	}
}

// FromRow builds a merged record from a row in Columns order.
// Missing trailing cells are left unknown.
func FromRow(row []string) Merged {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return Unknown
	}
	return Merged{
		Composer:     cell(0),
		DateOfBirth:  cell(1),
		BirthTown:    cell(2),
		BirthCountry: cell(3),
		DateOfDeath:  cell(4),
		DeathTown:    cell(5),
		DeathCountry: cell(6),
		Nationality:  cell(7),
	}
}
