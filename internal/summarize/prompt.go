// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package summarize

import "text/template"

// summaryPromptTmpl is the prompt sent to the model for each paper. The
// output contract (TITLE/LINK/AUTHORS/DATE/SUMMARY lines) is what the digest
// composer parses, so changes here must keep those field markers.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`SYSTEM
You are a precise research analyst for a newsletter read by ML engineers and PMs at a customer-twin startup.
Goal. Summarize each paper in two to three short paragraphs and link it to customer digital twins, synthetic users, LLM agents for consumer research, and practical evaluation.

Constraints.
Be factual and verify against provided metadata and abstract.
Avoid speculation. If a claim is unclear, state that briefly.
Tie findings to at least two of these.
a) building and validating twins
b) data sources and instrumentation
c) modeling choices such as fine-tuning, retrieval, and agents
d) evaluation such as individual and aggregate accuracy and test-retest stability
Mention one limitation or ethical risk in one concise sentence if relevant.
Output only the fields below. Do not add preamble.

Prefer concrete claims and numbers over adjectives. Surface one insight that helps a product team decide whether to adopt or replicate the method.

USER
Paper metadata and abstract.
TITLE: {{.Title}}
AUTHORS: {{.Authors}}
DATE: {{.Date}}
LINK: {{.URL}}
ABSTRACT: {{.Abstract}}

OUTPUT FORMAT
TITLE: {{.Title}}
LINK: {{.URL}}
AUTHORS: {{.Authors}}
DATE: {{.Date}}
SUMMARY:
{{"{{"}}write two to three paragraphs tailored to customer twins. do not use bullets{{"}}"}}`))

// applicationPromptTmpl asks for one concrete paragraph connecting the paper
// to the configured business context. Rendered in the digest under the
// paper's summary.
var applicationPromptTmpl = template.Must(template.New("application").Parse(`You are advising a product team.

BUSINESS CONTEXT:
{{.BusinessContext}}

PAPER:
TITLE: {{.Title}}
ABSTRACT: {{.Abstract}}

Write ONE short paragraph (3-4 sentences) describing how this team could apply the paper's findings or methods. Be concrete about what to build, test, or change. Do not restate the abstract. Return only the paragraph.`))
