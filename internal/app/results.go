package app

import "ethics-quiz-service/internal/domain"

// DefaultTheory is assigned when a participant has no tallied theories.
const DefaultTheory = "Utilitarianism"

const noDescription = "No description available"

// ComputeResults maps every participant in the snapshot to an assigned
// ethical theory with the full tally breakdown. It is a pure function of its
// inputs: the session is untouched and calling it twice yields equal output.
//
// Theories are visited in the order of their first occurrence across the
// participant's answered questions, and a later theory displaces the current
// assignment only with a strictly greater tally. The first theory to reach
// the maximum therefore keeps priority.
func ComputeResults(snap domain.SessionSnapshot, qs domain.QuestionSet) map[string]domain.Result {
	results := make(map[string]domain.Result, len(snap.Participants))

	for _, p := range snap.Participants {
		history := snap.AnswerHistory[p.ID]

		tally := make(map[string]int)
		var order []string
		for _, record := range history {
			q, ok := qs.QuestionByID(record.QuestionID)
			if !ok {
				continue
			}
			for _, theory := range q.Answers.Detail(record.Answer).TheoryAlignment {
				if _, seen := tally[theory]; !seen {
					order = append(order, theory)
				}
				tally[theory]++
			}
		}

		assigned := DefaultTheory
		maxTally := 0
		for _, theory := range order {
			if tally[theory] > maxTally {
				maxTally = tally[theory]
				assigned = theory
			}
		}

		description, ok := qs.Theories[assigned]
		if !ok || description == "" {
			description = noDescription
		}

		results[p.ID] = domain.Result{
			Participant: domain.ParticipantInfo{
				ID:   p.ID,
				Name: p.Name,
				Icon: p.Icon,
			},
			Theory: domain.TheoryAssignment{
				Name:        assigned,
				Description: description,
			},
			Tally:         tally,
			AnswerHistory: append([]domain.AnswerRecord(nil), history...),
		}
	}
	return results
}
