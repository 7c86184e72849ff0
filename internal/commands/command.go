// Package commands parses the palette's slash commands into typed commands
// and dispatches them to the handlers the app wires in.
package commands

import (
	"fmt"
	"strings"

	"github.com/steebapp/steebd/internal/model"
)

type Type string

const (
	TypeAdd     Type = "add"
	TypeDone    Type = "done"
	TypeDelete  Type = "delete"
	TypeShow    Type = "show"
	TypeExport  Type = "export"
	TypeSync    Type = "sync"
	TypeBackup  Type = "backup"
	TypeRestore Type = "restore"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AddArgs carries a new task. Inline tokens refine it: @2026-08-30 schedules,
// !high sets priority, #etiqueta tags, +salud picks the type.
type AddArgs struct {
	Title         string
	ScheduledDate string
	Priority      model.Priority
	Type          model.TaskType
	Tags          []string
}

type TargetArgs struct {
	Target string
}

type ShowArgs struct {
	Subject string
	Tag     string
}

type Command struct {
	Type   Type
	Raw    string
	Add    *AddArgs
	Done   *TargetArgs
	Delete *TargetArgs
	Show   *ShowArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseTarget(input, TypeDone, args)
	case TypeDelete:
		return parseTarget(input, TypeDelete, args)
	case TypeShow:
		return parseShow(input, args)
	case TypeExport:
		return Command{Type: TypeExport, Raw: input}, nil
	case TypeSync:
		return Command{Type: TypeSync, Raw: input}, nil
	case TypeBackup:
		return Command{Type: TypeBackup, Raw: input}, nil
	case TypeRestore:
		return Command{Type: TypeRestore, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}

	add := AddArgs{}
	var titleWords []string
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "@") && len(arg) > 1:
			add.ScheduledDate = arg[1:]
		case strings.HasPrefix(arg, "!") && len(arg) > 1:
			add.Priority = model.Priority(strings.ToLower(arg[1:]))
		case strings.HasPrefix(arg, "#") && len(arg) > 1:
			add.Tags = append(add.Tags, strings.ToLower(arg[1:]))
		case strings.HasPrefix(arg, "+") && len(arg) > 1:
			add.Type = model.TaskType(strings.ToLower(arg[1:]))
		default:
			titleWords = append(titleWords, arg)
		}
	}
	add.Title = strings.TrimSpace(strings.Join(titleWords, " "))
	if add.Title == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a title"}
	}
	if !add.Priority.IsValid() {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown priority %q", add.Priority)}
	}
	if add.Type != "" && !add.Type.IsValid() {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("unknown type %q", add.Type)}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &add}, nil
}

func parseTarget(raw string, typ Type, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a task", typ)}
	}
	target := TargetArgs{Target: strings.Join(args, " ")}
	cmd := Command{Type: typ, Raw: raw}
	switch typ {
	case TypeDone:
		cmd.Done = &target
	case TypeDelete:
		cmd.Delete = &target
	}
	return cmd, nil
}

func parseShow(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "show requires a subject"}
	}
	subject := strings.ToLower(args[0])
	tag := ""
	for _, arg := range args[1:] {
		if strings.HasPrefix(strings.ToLower(arg), "tag:") {
			tag = strings.TrimSpace(strings.TrimPrefix(arg, "tag:"))
		}
	}
	return Command{Type: TypeShow, Raw: raw, Show: &ShowArgs{Subject: subject, Tag: tag}}, nil
}
