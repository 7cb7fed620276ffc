package report

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are an HR evaluation assistant."

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(none)"
	}
	return s
}

// BuildPrompt renders the instruction text sent to the model.
func BuildPrompt(s Snapshot) string {
	var b strings.Builder
	b.WriteString(systemPrompt + "\n\n")
	b.WriteString("Generate a structured professional performance report.\n\n")
	fmt.Fprintf(&b, "Months Worked: %d\n", s.MonthsWorked)
	fmt.Fprintf(&b, "Manager Rating: %d\n", s.Rating)
	fmt.Fprintf(&b, "Manager Comment: %s\n\n", orNone(s.ManagerComment))
	fmt.Fprintf(&b, "Intern Feedback: %s\n\n", orNone(s.InternComment))
	fmt.Fprintf(&b, "HR Comment: %s\n", orNone(s.HRComment))
	fmt.Fprintf(&b, "HR Rating Adjustment: %+d\n\n", s.HRRatingAdjustment)
	b.WriteString("Tasks:\n")
	b.WriteString("1. Write a concise executive summary.\n")
	b.WriteString("2. Highlight strengths.\n")
	b.WriteString("3. Identify areas of improvement.\n")
	b.WriteString("4. Flag if performance is below expectations.\n")
	b.WriteString("5. Provide final performance verdict.\n")
	return b.String()
}
