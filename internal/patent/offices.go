package patent

import "strings"

// PatentOffice describes a filing jurisdiction.
type PatentOffice struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FullName       string `json:"fullName"`
	Coverage       string `json:"coverage"`
	Description    string `json:"description,omitempty"`
	ProcessingTime string `json:"processingTime,omitempty"`
	Cost           string `json:"cost,omitempty"`
	Popular        bool   `json:"popular,omitempty"`
}

var offices = []PatentOffice{
	{
		ID:             "uspto",
		Name:           "USPTO",
		FullName:       "United States Patent and Trademark Office",
		Coverage:       "United States",
		Description:    "File patents for protection in the United States market",
		ProcessingTime: "18-24 months",
		Cost:           "$1,600 - $3,200",
		Popular:        true,
	},
	{
		ID:             "wipo",
		Name:           "WIPO",
		FullName:       "World Intellectual Property Organization",
		Coverage:       "156+ Countries",
		Description:    "International patent application under PCT system",
		ProcessingTime: "30-31 months",
		Cost:           "$4,000 - $8,000",
		Popular:        true,
	},
	{
		ID:             "epo",
		Name:           "EPO",
		FullName:       "European Patent Office",
		Coverage:       "38 European Countries",
		Description:    "Single application for protection across European countries",
		ProcessingTime: "24-36 months",
		Cost:           "$3,000 - $6,000",
		Popular:        true,
	},
	{
		ID:             "ipo",
		Name:           "IPO",
		FullName:       "Indian Patent Office",
		Coverage:       "India",
		Description:    "File patents for protection in the Indian market",
		ProcessingTime: "12-18 months",
		Cost:           "$200 - $800",
		Popular:        false,
	},
}

// Offices returns a copy of the supported offices in display order.
func Offices() []PatentOffice {
	out := make([]PatentOffice, len(offices))
	copy(out, offices)
	return out
}

// LookupOffice finds an office by id (case-insensitive).
func LookupOffice(id string) (PatentOffice, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, o := range offices {
		if o.ID == id {
			return o, true
		}
	}
	return PatentOffice{}, false
}

// Validate requires the fields prompt construction depends on.
func (o PatentOffice) Validate() error {
	var problems []string
	if strings.TrimSpace(o.Name) == "" {
		problems = append(problems, "selectedOffice.name is required")
	}
	if strings.TrimSpace(o.FullName) == "" {
		problems = append(problems, "selectedOffice.fullName is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
