package patent

import (
	"fmt"
	"strings"
)

// Section names, in generation order.
const (
	SectionTitle               = "Title"
	SectionAbstract            = "Abstract"
	SectionTechnicalField      = "Technical Field"
	SectionBackground          = "Background"
	SectionSummary             = "Summary"
	SectionClaims              = "Claims"
	SectionDetailedDescription = "Detailed Description"
)

var sections = []string{
	SectionTitle,
	SectionAbstract,
	SectionTechnicalField,
	SectionBackground,
	SectionSummary,
	SectionClaims,
	SectionDetailedDescription,
}

// Sections returns the fixed, ordered section list.
func Sections() []string {
	out := make([]string, len(sections))
	copy(out, sections)
	return out
}

// SystemInstruction is sent with every section request.
const SystemInstruction = "You are an expert patent attorney and technical writer. Generate high-quality patent content that meets professional standards."

const fileUploadNote = "Invention data provided as file upload"

const notProvided = "Not provided"

const markdownClause = "Format the response in clean markdown with appropriate headers, bullet points, and formatting. Use proper markdown syntax including **bold**, *italic*, and numbered lists where appropriate."

const htmlClause = "Format the response as clean HTML using only these tags: <h1> to <h4> for headers, <strong> for bold, <em> for italic, <ul>/<ol> with <li> for lists, <p> for paragraphs and <br> for line breaks. Do not include <html>, <head>, <body> or style attributes."

// BuildPrompt returns the user instruction for one section. It is a pure
// function of its inputs.
func BuildPrompt(section string, inv Invention, office PatentOffice, format Format) string {
	base := inventionView(inv)
	jurisdiction := jurisdictionOf(office)
	clause := formatClause(format)

	var body string
	switch section {
	case SectionTitle:
		body = "Create a clear, concise patent title for this invention. The title should be descriptive but not overly long (under 30 words)."
	case SectionAbstract:
		body = fmt.Sprintf("Write a patent abstract (150-250 words) that summarizes the invention, its technical field, the problem it solves, and the solution. Format for %s.", jurisdiction)
	case SectionTechnicalField:
		body = "Write the technical field section describing the area of technology this invention relates to."
	case SectionBackground:
		body = "Write the background section explaining the current state of technology and problems that exist."
	case SectionSummary:
		body = "Write a summary of the invention section that clearly explains what the invention is and how it works."
	case SectionClaims:
		body = fmt.Sprintf("Write patent claims (at least 3 claims, mixing independent and dependent claims) that define the scope of protection. Format according to %s standards. Use numbered lists for claims.", jurisdiction)
	case SectionDetailedDescription:
		body = "Write a detailed description of the invention including how it works, its components, and implementation details. Include explicit sections and subsections."
	default:
		return join(
			fmt.Sprintf("Generate content for the %s section of a patent application to be filed with %s.", section, jurisdiction),
			clause,
			"Based on:\n"+base,
		)
	}
	return join(
		body,
		fmt.Sprintf("The application will be filed with %s.", jurisdiction),
		clause,
		"Based on:\n"+base,
	)
}

// BuildDocumentPrompt asks for a complete application in a single request.
func BuildDocumentPrompt(inv Invention, office PatentOffice) string {
	var sb strings.Builder
	if inv.IsFile() {
		fmt.Fprintf(&sb, "Generate a complete patent application for the invention described in the uploaded document. The patent should be filed with %s.\n\n", jurisdictionOf(office))
	} else {
		fmt.Fprintf(&sb, "Generate a complete patent application based on the following invention details for filing with %s:\n\n", jurisdictionOf(office))
		sb.WriteString(inventionView(inv))
		sb.WriteString("\n\n")
	}
	sb.WriteString("Please create a comprehensive patent document with the following sections:\n")
	for i, s := range sections {
		switch s {
		case SectionAbstract:
			fmt.Fprintf(&sb, "%d. %s (150-250 words)\n", i+1, s)
		case SectionClaims:
			fmt.Fprintf(&sb, "%d. %s (at least 3 claims, independent and dependent)\n", i+1, s)
		default:
			fmt.Fprintf(&sb, "%d. %s\n", i+1, s)
		}
	}
	coverage := strings.TrimSpace(office.Coverage)
	if coverage == "" {
		coverage = office.FullName
	}
	fmt.Fprintf(&sb, "\nEnsure the patent application follows the formatting and requirements for %s.", coverage)
	if !inv.IsFile() {
		sb.WriteString(" Make the claims specific and technically detailed based on the provided information.")
	}
	return sb.String()
}

type field struct {
	label string
	value string
}

func inventionView(inv Invention) string {
	if inv.IsFile() {
		return fileUploadNote
	}
	d := inv.Disclosure
	fields := []field{
		{"Title", d.Title},
		{"Problem", d.Problem},
		{"Solution", d.Solution},
		{"Technical Description", d.TechnicalDescription},
		{"Advantages", d.Advantages},
		{"Drawings Description", d.DrawingsDescription},
		{"Prior Art", d.PriorArt},
		{"Inventors", d.Inventors},
		{"Assignee", d.Assignee},
	}
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		v := strings.TrimSpace(f.value)
		if v == "" {
			v = notProvided
		}
		lines = append(lines, f.label+": "+v)
	}
	return strings.Join(lines, "\n")
}

func jurisdictionOf(o PatentOffice) string {
	full := strings.TrimSpace(o.FullName)
	name := strings.TrimSpace(o.Name)
	switch {
	case full != "" && name != "" && full != name:
		return fmt.Sprintf("%s (%s)", full, name)
	case full != "":
		return full
	default:
		return name
	}
}

func formatClause(f Format) string {
	switch f {
	case FormatMarkdown:
		return markdownClause
	case FormatHTML:
		return htmlClause
	default:
		return ""
	}
}

func join(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
