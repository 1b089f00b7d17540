package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finrag/internal/domain"
)

// Sentinel answers returned without calling the LLM when no documents were
// retrieved. They are user-visible strings, not errors.
const (
	NoContextAnswer  = "I don't have enough information to answer that question."
	NoFinancialsData = "No financial information is available to summarize."
)

const ragPrompt = `You are an AI assistant specialized in providing information about technical manuals and company annual reports.
Use the following retrieved context to answer the question. If you don't know the answer or can't find it in the context,
say that you don't know and avoid making up information.

Context:
%s

Question: %s

When answering:
1. Provide specific information from the documents when available
2. Cite the source documents where the information came from
3. If financial figures are mentioned, be precise with the numbers

Your answer:`

const conversationalRAGPrompt = `You are an AI assistant specialized in providing information about technical manuals and company annual reports.
Use the following retrieved context to answer the latest question. If you don't know the answer or can't find it in the context,
say that you don't know and avoid making up information.

Here is the conversation history:
%s

Retrieved context:
%s

Latest question: %s

When answering:
1. Provide specific information from the documents when available
2. Cite the source documents where the information came from
3. If financial figures are mentioned, be precise with the numbers
4. Be conversational and friendly, but focus on providing accurate information
5. Only answer the latest question, don't repeat previous answers unless asked to

Your answer:`

const financialSummaryPrompt = `You are an AI financial analyst specialized in extracting and summarizing financial information from company annual reports.

Based on the following retrieved context, create a concise summary of the financial performance.

Context:
%s

When summarizing:
1. Focus on key financial metrics (revenue, profit, growth, etc.)
2. Mention specific time periods and comparisons between periods when available
3. Highlight any significant changes or trends
4. Organize the information in a clear, structured way
5. Cite the source documents for key information

Financial Summary:`

// Generator fills prompt templates with retrieved context and invokes the
// LLM. Service failures never escape: they come back as explanatory answer
// strings, which the orchestrator delivers as the user-visible response.
type Generator struct {
	llm    domain.LLM
	logger *slog.Logger
}

func New(llm domain.LLM, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: llm, logger: logger}
}

// FormatContext renders retrieved documents into the context block fed to
// the prompt templates. Input order is preserved, so the block reflects the
// retriever's ranking.
func FormatContext(documents []domain.Document) string {
	parts := make([]string, 0, len(documents))
	for i, doc := range documents {
		parts = append(parts, fmt.Sprintf("[Document %d from %s]\n%s\n", i+1, doc.Source, doc.Content))
	}
	return strings.Join(parts, "\n")
}

// Answer generates a response to the query grounded in the retrieved
// documents.
func (g *Generator) Answer(ctx context.Context, query string, documents []domain.Document) string {
	if len(documents) == 0 {
		return NoContextAnswer
	}
	prompt := fmt.Sprintf(ragPrompt, FormatContext(documents), query)
	response, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		g.logger.Error("response generation failed", "error", err)
		return fmt.Sprintf("An error occurred while generating the response: %s", err)
	}
	return response
}

// ConversationalAnswer is Answer with prior turns included; the template
// instructs the model to answer only the latest question.
func (g *Generator) ConversationalAnswer(ctx context.Context, query string, documents []domain.Document, history string) string {
	if len(documents) == 0 {
		return NoContextAnswer
	}
	prompt := fmt.Sprintf(conversationalRAGPrompt, history, FormatContext(documents), query)
	response, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		g.logger.Error("conversational response generation failed", "error", err)
		return fmt.Sprintf("An error occurred while generating the response: %s", err)
	}
	return response
}

// FinancialSummary summarizes the financial content of the documents,
// emphasizing metrics, period comparisons and source attribution.
func (g *Generator) FinancialSummary(ctx context.Context, documents []domain.Document) string {
	if len(documents) == 0 {
		return NoFinancialsData
	}
	prompt := fmt.Sprintf(financialSummaryPrompt, FormatContext(documents))
	response, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		g.logger.Error("financial summary generation failed", "error", err)
		return fmt.Sprintf("An error occurred while generating the financial summary: %s", err)
	}
	return response
}
