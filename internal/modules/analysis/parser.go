package analysis

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
)

// ParseResponse extracts the chance and risk rows from a model reply.
// The model is instructed to answer with two CSV rows:
//
//	chance,<0-100>,<explanation>
//	risk,<0-100>,<explanation>
//
// Markdown code fences and surrounding prose are tolerated; any line
// that does not parse as one of the two rows is ignored. Zero is a
// valid score: "chance 0, risk 100" is the instructed answer when the
// model lacks information.
func ParseResponse(text string) (chance, risk int, chanceExpl, riskExpl string, err error) {
	foundChance := false
	foundRisk := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "`"))
		if line == "" {
			continue
		}

		reader := csv.NewReader(strings.NewReader(line))
		reader.FieldsPerRecord = -1
		record, readErr := reader.Read()
		if readErr != nil || len(record) < 3 {
			continue
		}

		kind := strings.ToLower(strings.TrimSpace(record[0]))
		score, convErr := strconv.Atoi(strings.TrimSpace(record[1]))
		if convErr != nil || score < 0 || score > 100 {
			continue
		}
		explanation := strings.TrimSpace(strings.Join(record[2:], ", "))

		switch kind {
		case "chance":
			chance, chanceExpl, foundChance = score, explanation, true
		case "risk":
			risk, riskExpl, foundRisk = score, explanation, true
		}
	}

	if !foundChance || !foundRisk {
		return 0, 0, "", "", fmt.Errorf("response missing chance or risk row")
	}

	return chance, risk, chanceExpl, riskExpl, nil
}
