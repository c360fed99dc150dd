package synthesis

import (
	"fmt"
	"strings"

	"ragline/llm"
)

func createPrompt(query, context string) string {
	var sb strings.Builder
	sb.WriteString("Context information is below.\n")
	sb.WriteString("---------------------\n")
	sb.WriteString(context)
	sb.WriteString("\n---------------------\n")
	sb.WriteString("Using the context information and not prior knowledge, answer the question.\n")
	fmt.Fprintf(&sb, "Question: %s\n", query)
	sb.WriteString("Answer:")
	return sb.String()
}

func refinePrompt(query, context, existing string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The original question is: %s\n", query)
	sb.WriteString("We have provided an existing answer:\n")
	sb.WriteString(existing)
	sb.WriteString("\nWe have the opportunity to refine the existing answer with more context below.\n")
	sb.WriteString("---------------------\n")
	sb.WriteString(context)
	sb.WriteString("\n---------------------\n")
	sb.WriteString("Given the new context, refine the original answer. If the context is not useful, return the existing answer unchanged.\n")
	sb.WriteString("Refined answer:")
	return sb.String()
}

func summarizePrompt(query, context string) string {
	var sb strings.Builder
	sb.WriteString("Context information from multiple sources is below.\n")
	sb.WriteString("---------------------\n")
	sb.WriteString(context)
	sb.WriteString("\n---------------------\n")
	sb.WriteString("Given the information and not prior knowledge, answer the question.\n")
	fmt.Fprintf(&sb, "Question: %s\n", query)
	sb.WriteString("Answer:")
	return sb.String()
}

// scaffoldCost estimates how much of the budget the prompt template and the
// query consume before any context is inserted. The refine template also
// carries the running answer, so the larger of the two templates is used.
func scaffoldCost(sizer llm.Sizer, query string) int {
	create := sizer.EstimateSize(createPrompt(query, ""))
	refine := sizer.EstimateSize(refinePrompt(query, "", ""))
	if refine > create {
		return refine
	}
	return create
}
