package enrich

import "fmt"

// Prompt templates reproduce the wording spec.md §4.5 mandates verbatim
// (bracketed placeholders substituted), grounded on
// original_source/skimmer/src/service/inference.rs.

func summaryPrompt(title, text string) string {
	return fmt.Sprintf(
		"Given the title \"%s\" and the following content, list the related topics and write a detailed summary "+
			"aligned with the title. Do not invent any information that is not present in the content. "+
			"Answer strictly in the form:\n- Topics: <comma-separated topics>\n- Summary: <detailed summary>\n\n"+
			"Content:\n%s", title, text)
}

func keywordPrompt(title, text string) string {
	return fmt.Sprintf(
		"Given the title \"%s\" and the following content, list comma-separated related keywords. "+
			"Do not explain. Do not invent any information that is not present in the content.\n\nContent:\n%s",
		title, text)
}

func anchorPassagePrompt(content string, maxWords int) string {
	return fmt.Sprintf(
		"Write one sentence, no more than %d words, that aligns with the following content:\n\n%s",
		maxWords, content)
}

func entailmentPrompt(premise string) string {
	return fmt.Sprintf("Rewrite the following sentence, preserving its meaning:\n\n%s", premise)
}

func contradictionPrompt(premise string) string {
	return fmt.Sprintf(
		"Rewrite the following sentence so that its meaning is entirely contradictory to the original:\n\n%s",
		premise)
}

func randomPrompt(seedWords []string, minWords int) string {
	return fmt.Sprintf(
		"Using the following words as seeds, write a random sentence of at least %d words:\n\n%s",
		minWords, joinWords(seedWords))
}

func subjectPrompt(content string, maxSubjects, maxWords int) string {
	return fmt.Sprintf(
		"List %d different subjects that align with the following content. "+
			"Each subject must be no more than %d words, one per line:\n\n%s",
		maxSubjects, maxWords, content)
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += " "
		}
		out += w
	}
	return out
}
