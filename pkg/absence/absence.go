package absence

// Absence is a reason for not working, such as sick leave or vacation, that hours can be logged against.
type Absence struct {
	Id          int
	Name        string
	Description string
	AbsenceCode string
}
