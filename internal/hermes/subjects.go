package hermes

const (
	SubjectSimulationRecomputed = "cx.simulation.recomputed"
	SubjectToggleServiceCommand = "cx.command.service.toggle"

	StreamName   = "IMPACT_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

// Persona lifecycle subjects
func SubjectPersonaCreated(id string) string { return "cx.persona." + id + ".created" }
func SubjectPersonaUpdated(id string) string { return "cx.persona." + id + ".updated" }
func SubjectPersonaDeleted(id string) string { return "cx.persona." + id + ".deleted" }

// Service lifecycle subjects
func SubjectServiceCreated(id string) string { return "cx.service." + id + ".created" }
func SubjectServiceUpdated(id string) string { return "cx.service." + id + ".updated" }
func SubjectServiceToggled(id string) string { return "cx.service." + id + ".toggled" }
func SubjectServiceDeleted(id string) string { return "cx.service." + id + ".deleted" }
