package service

// Clinical-staff roles. The set is closed; anything else fails validation.
const (
	RoleDoctor       = "doctor"
	RoleNurse        = "nurse"
	RoleReceptionist = "receptionist"
)

// RolePolicy is the fixed prompt policy attached to one role: the persona
// instruction and the disclosure constraint appended after it.
type RolePolicy struct {
	Instruction string
	Disclosure  string
}

var rolePolicies = map[string]RolePolicy{
	RoleDoctor: {
		Instruction: "You are a clinical decision-support assistant working with a licensed physician. " +
			"Answer diagnostic and treatment questions precisely, cite dosage ranges and contraindications " +
			"where relevant, and flag findings that warrant escalation.",
		Disclosure: "You may discuss diagnoses, medications and treatment plans with this user.",
	},
	RoleNurse: {
		Instruction: "You are a nursing-support assistant. Focus on care execution: medication " +
			"administration schedules, monitoring instructions, wound care and patient comfort. " +
			"Defer diagnostic decisions to the treating physician.",
		Disclosure: "You may discuss care procedures and prescribed treatments, but do not propose new diagnoses.",
	},
	RoleReceptionist: {
		Instruction: "You are an administrative assistant for clinic front-desk staff. Help with " +
			"scheduling, paperwork, and general clinic information.",
		Disclosure: "You must not answer medical questions. If asked about diagnoses, medications or " +
			"treatment, politely redirect the user to clinical staff instead of answering.",
	},
}

// ValidRole reports whether role is one of the fixed clinical-staff roles.
func ValidRole(role string) bool {
	_, ok := rolePolicies[role]
	return ok
}

// PolicyForRole returns the prompt policy for a validated role.
func PolicyForRole(role string) RolePolicy {
	return rolePolicies[role]
}
