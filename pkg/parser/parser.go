// Package parser implements the text-prefix grammar that turns an agent
// backend's free-text output into peer messages and privileged runtime
// commands.
package parser

import (
	"strconv"
	"strings"

	"crewctl/pkg/logx"
	"crewctl/pkg/proto"
)

var log = logx.NewLogger("parser")

// prefix is one recognized section keyword. multiLine distinguishes
// CREW:/RELIEVE: (single-line, consume only the rest of their own line)
// from every other prefix (multi-line, consume through the next
// recognized prefix or end of input).
type prefix struct {
	token     string
	multiLine bool
}

var prefixes = []prefix{
	{"CREW:", false},
	{"RELIEVE:", false},
	{"TASK:", true},
	{"APPROVED:", true},
	{"REJECTED:", true},
	{"COMPLETE:", true},
	{"BLOCKED:", true},
	{"INTERRUPT:", true},
	{"EVALUATION:", true},
	{"OBSERVATION:", true},
}

func matchPrefix(line string) (prefix, bool) {
	trimmed := strings.TrimLeft(line, " \t")
	for _, p := range prefixes {
		if strings.HasPrefix(trimmed, p.token) {
			return p, true
		}
	}
	return prefix{}, false
}

// section is one scanned block: a recognized prefix plus its trimmed
// content.
type section struct {
	prefix  prefix
	content string
}

// scanSections splits text into the ordered sequence of recognized
// sections, per spec.md §4.4: text outside any section is discarded,
// single-line prefixes consume only their own line, multi-line prefixes
// consume lines up to (not including) the next recognized prefix.
func scanSections(text string) []section {
	lines := strings.Split(text, "\n")
	var sections []section

	i := 0
	for i < len(lines) {
		p, ok := matchPrefix(lines[i])
		if !ok {
			i++
			continue
		}

		trimmed := strings.TrimLeft(lines[i], " \t")
		firstLineContent := strings.TrimPrefix(trimmed, p.token)

		if !p.multiLine {
			sections = append(sections, section{prefix: p, content: strings.TrimSpace(firstLineContent)})
			i++
			continue
		}

		buf := []string{firstLineContent}
		i++
		for i < len(lines) {
			if _, isPrefix := matchPrefix(lines[i]); isPrefix {
				break
			}
			buf = append(buf, lines[i])
			i++
		}

		content := strings.Join(buf, "\n")
		content = strings.TrimLeft(content, " \t")
		content = strings.TrimRight(content, " \t\r\n")
		sections = append(sections, section{prefix: p, content: content})
	}

	return sections
}

// ParsedOutput is the tagged union a single section produces: either a
// peer message to route, or a privileged command for the supervisor.
// At most one of the two fields is non-nil.
type ParsedOutput struct {
	Message *proto.AgentMessage
	Command *proto.RuntimeCommand
}

// Parse extracts every ParsedOutput from one block of backend text
// attributed to sender "from", in the order the sections appear. Sections
// produced by a role not authorized for that prefix are silently dropped
// (spec.md §4.4's authorization table); the drop is logged at info level.
func Parse(from proto.AgentID, text string) []ParsedOutput {
	var outputs []ParsedOutput

	for _, s := range scanSections(text) {
		out, ok := dispatch(from, s)
		if !ok {
			continue
		}
		outputs = append(outputs, out)
	}

	return outputs
}

func dispatch(from proto.AgentID, s section) (ParsedOutput, bool) {
	switch s.prefix.token {
	case "CREW:":
		return dispatchCrew(from, s.content)
	case "RELIEVE:":
		return dispatchRelieve(from, s.content)
	case "TASK:":
		return messageOutput(from, proto.NewSingletonID(proto.RoleArchitect), proto.MsgKindTaskAssignment, s.content), true
	case "APPROVED:":
		target := resolveDeveloperTarget(s.content)
		return messageOutput(from, target, proto.MsgKindTaskAssignment, s.content), true
	case "REJECTED:":
		return messageOutput(from, proto.NewSingletonID(proto.RoleManager), proto.MsgKindArchitectReview, s.content), true
	case "INTERRUPT:":
		if from.Role != proto.RoleArchitect {
			logDropped(s.prefix.token, from)
			return ParsedOutput{}, false
		}
		return messageOutput(from, proto.NewDeveloperID(0), proto.MsgKindInterrupt, s.content), true
	case "COMPLETE:":
		return messageOutput(from, proto.NewSingletonID(proto.RoleManager), proto.MsgKindTaskComplete, s.content), true
	case "BLOCKED:":
		return messageOutput(from, proto.NewSingletonID(proto.RoleManager), proto.MsgKindTaskGiveUp, s.content), true
	case "EVALUATION:":
		return logOnly(from, "EVALUATION", s.content)
	case "OBSERVATION:":
		return logOnly(from, "OBSERVATION", s.content)
	default:
		return ParsedOutput{}, false
	}
}

func dispatchCrew(from proto.AgentID, content string) (ParsedOutput, bool) {
	if from.Role != proto.RoleManager {
		logDropped("CREW:", from)
		return ParsedOutput{}, false
	}
	n, err := strconv.ParseUint(strings.TrimSpace(content), 10, 8)
	if err != nil {
		log.Info("dropping CREW: directive with non-numeric content %q", content)
		return ParsedOutput{}, false
	}
	cmd := proto.NewSetCrewSize(uint8(n))
	return ParsedOutput{Command: &cmd}, true
}

func dispatchRelieve(from proto.AgentID, content string) (ParsedOutput, bool) {
	if from.Role != proto.RoleScorer {
		logDropped("RELIEVE:", from)
		return ParsedOutput{}, false
	}
	cmd := proto.NewRelieveManager(content)
	return ParsedOutput{Command: &cmd}, true
}

func logOnly(from proto.AgentID, label, content string) (ParsedOutput, bool) {
	if from.Role != proto.RoleScorer {
		logDropped(label+":", from)
		return ParsedOutput{}, false
	}
	log.Info("[scorer %s] %s", label, content)
	return ParsedOutput{}, false
}

func messageOutput(from, to proto.AgentID, kind proto.MsgKind, content string) ParsedOutput {
	msg := proto.NewMessage(from, to, kind, content)
	return ParsedOutput{Message: msg}
}

func logDropped(token string, from proto.AgentID) {
	log.Info("dropping %s from unauthorized role %s", token, from.Role)
}

// resolveDeveloperTarget implements spec.md §4.4's developer-target
// resolution: content beginning with "developer-" followed by exactly
// one decimal digit targets that index; any other form (no match,
// multi-digit, non-digit) falls back to developer-0.
func resolveDeveloperTarget(content string) proto.AgentID {
	const marker = "developer-"
	if !strings.HasPrefix(content, marker) {
		return proto.NewDeveloperID(0)
	}
	rest := content[len(marker):]
	if len(rest) == 0 || rest[0] < '0' || rest[0] > '9' {
		return proto.NewDeveloperID(0)
	}
	if len(rest) > 1 && rest[1] >= '0' && rest[1] <= '9' {
		// More than one digit: not the single-digit form spec.md
		// describes, fall back.
		return proto.NewDeveloperID(0)
	}
	return proto.NewDeveloperID(rest[0] - '0')
}
