package service

import (
	"fmt"
	"strings"

	"Asclepius/internal/models"
)

// Markers that replace the fact list when retrieval found nothing or failed.
// The assembler never aborts a turn: retrieval failure degrades to a marker.
const (
	noHistoryMarker   = "No patient history found in the memory system."
	memoryErrorFormat = "memory system error: %s. Proceed without patient history."
)

const antiFabricationClause = "Only rely on patient history that appears in the " +
	"PATIENT HISTORY section above or in the current conversation. Never invent " +
	"or assume facts about this patient that are not present there."

// AssembleSystemInstruction merges the role policy, turn identity, and the
// memory section into the system instruction for one generation call.
// Exactly one memory outcome is rendered: the fact list, the no-history
// marker, or an explicit error marker carrying the retrieval failure reason.
func AssembleSystemInstruction(turn *Turn, facts []*models.RetrievedFact, retrievalErr error) string {
	policy := PolicyForRole(turn.Role)

	var b strings.Builder
	b.WriteString(policy.Instruction)
	b.WriteString("\n\n")
	b.WriteString(policy.Disclosure)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current user role: %s. Patient identifier: %s.\n\n", turn.Role, turn.PatientID)

	b.WriteString("PATIENT HISTORY:\n")
	switch {
	case retrievalErr != nil:
		fmt.Fprintf(&b, memoryErrorFormat, retrievalErr.Error())
	case len(facts) == 0:
		b.WriteString(noHistoryMarker)
	default:
		for _, f := range facts {
			fmt.Fprintf(&b, "- %s\n", f.Content)
		}
	}
	b.WriteString("\n\n")
	b.WriteString(antiFabricationClause)
	return b.String()
}
