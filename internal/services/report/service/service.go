// Package service builds and renders the sample report
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"loopguard/internal/core/langhint"
	"loopguard/internal/core/profile"
	"loopguard/internal/core/repetition"
	"loopguard/internal/core/samples"
	perr "loopguard/internal/platform/errors"
	"loopguard/internal/platform/logger"
	str "loopguard/internal/platform/strings"
	"loopguard/internal/services/report/domain"

	"github.com/sashabaranov/go-openai"
)

// textWidth clips response text in the text report
const textWidth = 24

// DefaultModel is the OpenAI model named in the request preview
const DefaultModel = openai.GPT4oMini

// Service implements domain.ReporterPort
type Service struct {
	Samples samples.Set
	Det     *repetition.Detector
	Profile profile.Profile
	Model   string
}

// New constructs the report service; a nil detector means the default rules
func New(set samples.Set, det *repetition.Detector, p profile.Profile) *Service {
	if det == nil {
		det = repetition.Default()
	}
	return &Service{Samples: set, Det: det, Profile: p, Model: DefaultModel}
}

// Build evaluates every sample
func (s *Service) Build(ctx context.Context) (domain.Report, error) {
	rep := domain.Report{Profile: s.Profile.Name}

	for _, q := range s.Samples.Queries {
		if err := ctx.Err(); err != nil {
			return domain.Report{}, err
		}
		h := langhint.Detect(q)
		rep.Queries = append(rep.Queries, domain.Query{
			Text:    q,
			Script:  h.Script,
			Lang:    h.Lang,
			HanFrac: h.HanFrac,
			Profile: profile.ForText(q).Name,
		})
	}

	for _, r := range s.Samples.Responses {
		if err := ctx.Err(); err != nil {
			return domain.Report{}, err
		}
		res := s.Det.Detect(r.Text)
		row := domain.Response{
			Name:    r.Name,
			Text:    r.Text,
			Expect:  r.Expect,
			Verdict: res.Verdict(),
			Matches: res.Matches,
			Note:    r.Note,
		}
		if string(row.Verdict) != r.Expect {
			row.Mismatch = true
			rep.Mismatches++
			logger.C(ctx).Warn().Str("sample", r.Name).Str("expect", r.Expect).
				Str("verdict", string(row.Verdict)).Msg("sample verdict mismatch")
		}
		rep.Responses = append(rep.Responses, row)
	}

	m := s.Profile.Map()
	for _, k := range profile.Keys() {
		rep.Params = append(rep.Params, domain.Param{Key: k, Value: m[k]})
	}
	rep.Requests = s.requests()
	return rep, nil
}

// requests maps the profile onto an OpenAI chat request for the first sample
// query and onto a Gemini generation config
func (s *Service) requests() domain.Requests {
	req := &openai.ChatCompletionRequest{Model: str.Or(s.Model, DefaultModel)}
	if len(s.Samples.Queries) > 0 {
		req.Messages = []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: s.Samples.Queries[0],
		}}
	}
	s.Profile.ApplyOpenAI(req)
	return domain.Requests{OpenAI: req, Gemini: s.Profile.GenAIConfig()}
}

// Render writes r as aligned text or indented JSON
func (s *Service) Render(w io.Writer, r domain.Report, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return perr.WrapIf(enc.Encode(r), perr.ErrorCodeIO, "encode report")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := func(format string, a ...any) { fmt.Fprintf(tw, format, a...) }

	p("SAMPLE QUERIES\n")
	p("QUERY\tSCRIPT\tHAN\tPROFILE\n")
	for _, q := range r.Queries {
		p("%s\t%s\t%.2f\t%s\n", q.Text, str.Dash(q.Script), q.HanFrac, q.Profile)
	}

	p("\nPROBLEMATIC RESPONSES\n")
	p("NAME\tTEXT\tEXPECT\tVERDICT\tUNIT\tCOUNT\tNOTE\n")
	for _, x := range r.Responses {
		unit, count := "-", "-"
		if len(x.Matches) > 0 {
			m := primary(x)
			unit, count = fmt.Sprintf("%q", m.Unit), fmt.Sprint(m.Count)
		}
		verdict := string(x.Verdict)
		if x.Mismatch {
			verdict += " (!)"
		}
		p("%s\t%s\t%s\t%s\t%s\t%s\t%s\n", x.Name, str.Clip(x.Text, textWidth), x.Expect, verdict, unit, count, str.Dash(x.Note))
	}

	p("\nRECOMMENDED PARAMETERS (%s)\n", r.Profile)
	p("KEY\tVALUE\n")
	for _, kv := range r.Params {
		p("%s\t%v\n", kv.Key, kv.Value)
	}

	p("\nPROVIDER REQUESTS\n")
	p("PROVIDER\tFIELD\tVALUE\n")
	for _, row := range requestRows(r.Requests) {
		p("%s\t%s\t%s\n", row[0], row[1], row[2])
	}
	if r.Mismatches > 0 {
		p("\n%d sample(s) did not match the expected verdict\n", r.Mismatches)
	}
	return perr.WrapIf(tw.Flush(), perr.ErrorCodeIO, "write report")
}

// primary picks the match of the verdict rule
func primary(x domain.Response) repetition.Match {
	for _, m := range x.Matches {
		if string(m.Rule) == string(x.Verdict) {
			return m
		}
	}
	return x.Matches[0]
}

// requestRows flattens the provider requests into provider, field, value rows
func requestRows(q domain.Requests) [][3]string {
	var rows [][3]string
	if o := q.OpenAI; o != nil {
		add := func(k string, v any) { rows = append(rows, [3]string{"openai", k, fmt.Sprint(v)}) }
		add("model", o.Model)
		add("temperature", o.Temperature)
		add("max_tokens", o.MaxTokens)
		add("top_p", o.TopP)
		add("frequency_penalty", o.FrequencyPenalty)
		add("presence_penalty", o.PresencePenalty)
	}
	if g := q.Gemini; g != nil {
		add := func(k string, v *float32) {
			val := "-"
			if v != nil {
				val = fmt.Sprint(*v)
			}
			rows = append(rows, [3]string{"gemini", k, val})
		}
		add("temperature", g.Temperature)
		rows = append(rows, [3]string{"gemini", "max_output_tokens", fmt.Sprint(g.MaxOutputTokens)})
		add("top_p", g.TopP)
		add("top_k", g.TopK)
		add("frequency_penalty", g.FrequencyPenalty)
		add("presence_penalty", g.PresencePenalty)
	}
	return rows
}
