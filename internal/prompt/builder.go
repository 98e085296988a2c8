// Package prompt assembles the instruction text sent to the generator.
package prompt

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"
)

// WordLimit is the ceiling the report is asked to stay under.
const WordLimit = 400

// Section headings the report is asked to use, in order.
const (
	SectionRecommendation = "1. Your High-Impact Service Recommendation"
	SectionBlueprint      = "2. The Authority Blueprint: A Chain Reaction of Benefits"
	SectionFirstStep      = "3. Your First Step"
)

var benefitChain = []struct{ label, text string }{
	{"Initial Action", "Getting featured on trusted crypto sites and publications like USA Today or Business Insider."},
	{"Immediate Result", "This triggers higher search rankings, often overnight."},
	{"Customer Perception", "Potential customers searching for solutions see you as the obvious, trusted choice."},
	{"AI & Algorithm Amplification", "AI platforms (like Google's SGE) begin to cite you as a trusted source, and social/search algorithms start recommending your content."},
	{"Ultimate Outcome", "This builds massive authority, making client acquisition easier and establishing you as a leader."},
}

// Build returns the prompt for a website and its free-text services list.
// Both inputs are embedded verbatim. It never fails.
func Build(websiteURL, services string) string {
	md := markdown.NewMarkdown(io.Discard)

	md.PlainText(`You are an expert crypto marketing strategist and brand analyst. Your mission is to create a compelling, personalized "Authority Playbook" to convince the user to focus their initial marketing efforts on a single, high-impact service.`)
	md.PlainText("")
	md.PlainText(fmt.Sprintf("Analyze the user's business based on their website URL (%s) and their list of services. Then, generate a report using Markdown with the following structure:", websiteURL))
	md.PlainText("")

	md.H3(SectionRecommendation)
	md.PlainText("State clearly which single service from their list you recommend promoting first. Justify your choice concisely, explaining why it's the best strategic starting point to attract high-value clients and establish market leadership in the current crypto landscape.")
	md.PlainText("")

	md.H3(SectionBlueprint)
	md.PlainText(`Explain how promoting this specific service on authoritative, Google News-approved crypto publications creates a powerful chain reaction of benefits. Frame this as "The Compound Effect of Brand Strength."`)
	md.PlainText("")
	md.PlainText(`Use a "benefit of the benefit" structure. Integrate these points naturally:`)
	bullets := make([]string, 0, len(benefitChain))
	for _, b := range benefitChain {
		bullets = append(bullets, markdown.Bold(b.label+":")+" "+b.text)
	}
	md.BulletList(bullets...)
	md.PlainText("")

	md.H3(SectionFirstStep)
	md.PlainText("Conclude with a powerful, direct statement that this entire chain reaction starts with one strategic decision: getting published on the world's most trusted sites.")
	md.PlainText("")
	md.PlainText(fmt.Sprintf("Keep the entire report under %d words. Be direct, insightful, and highly persuasive.", WordLimit))
	md.PlainText("")

	md.PlainText("Here is the user's data:")
	md.BulletList("Website: "+websiteURL, "Services:")
	md.PlainText("---")
	md.PlainText(services)
	md.PlainText("---")

	return strings.TrimSpace(md.String()) + "\n"
}
