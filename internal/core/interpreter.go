package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/DaveMcBlame1/chatroom/internal/store"
)

// CommandSigil starts a slash-command.
const CommandSigil = "/"

// DefaultMaxMessageLength is the longest accepted message, in runes.
const DefaultMaxMessageLength = 500

// Verb is the parsed kind of an incoming line of text.
type Verb int

const (
	// VerbSay is an ordinary chat message.
	VerbSay Verb = iota
	VerbDelete
	VerbBan
	VerbUnban
	// VerbUnknown is a slash-command with an unrecognised name.
	VerbUnknown
)

var verbsByName = map[string]Verb{
	"delete": VerbDelete,
	"ban":    VerbBan,
	"unban":  VerbUnban,
}

func (v Verb) String() string {
	switch v {
	case VerbSay:
		return "say"
	case VerbDelete:
		return "delete"
	case VerbBan:
		return "ban"
	case VerbUnban:
		return "unban"
	default:
		return "unknown"
	}
}

// Arity is the number of arguments the verb takes, or -1 for VerbUnknown.
func (v Verb) Arity() int {
	switch v {
	case VerbSay:
		return 0
	case VerbDelete, VerbBan, VerbUnban:
		return 1
	default:
		return -1
	}
}

// Privileged reports whether the verb is restricted to authorized identities.
func (v Verb) Privileged() bool {
	return v != VerbSay
}

// Input is one parsed line of text.
type Input struct {
	Verb Verb
	Name string   // command name as typed, without the sigil
	Args []string // whitespace-separated arguments
	Text string   // original text
}

// Parse classifies text as an ordinary message or a slash-command.
func Parse(text string) Input {
	if !strings.HasPrefix(text, CommandSigil) {
		return Input{Verb: VerbSay, Text: text}
	}
	fields := strings.Fields(strings.TrimPrefix(text, CommandSigil))
	if len(fields) == 0 {
		return Input{Verb: VerbUnknown, Text: text}
	}
	verb, ok := verbsByName[fields[0]]
	if !ok {
		verb = VerbUnknown
	}
	return Input{Verb: verb, Name: fields[0], Args: fields[1:], Text: text}
}

// Valid reports whether the argument count matches the verb.
func (in Input) Valid() bool {
	return in.Verb != VerbUnknown && len(in.Args) == in.Verb.Arity()
}

// Outcome is what an interpreted action should produce. The hub publishes
// Public to everyone and sends Private to the acting connection.
type Outcome struct {
	Public  []*Event
	Private []*Event
}

func private(err *CoreError) Outcome {
	return Outcome{Private: []*Event{privateNotice(err)}}
}

// Interpreter decides what text and delete requests do. It performs store
// writes but never delivers events itself.
type Interpreter struct {
	messages   store.MessageStore
	bans       store.BanStore
	users      Directory
	authorized AuthorizedSet
	filter     TextFilter
	maxLength  int
	now        func() time.Time
}

// NewInterpreter creates an interpreter. filter may be nil.
func NewInterpreter(messages store.MessageStore, bans store.BanStore, users Directory, authorized AuthorizedSet, filter TextFilter, maxLength int) *Interpreter {
	if maxLength <= 0 {
		maxLength = DefaultMaxMessageLength
	}
	return &Interpreter{
		messages:   messages,
		bans:       bans,
		users:      users,
		authorized: authorized,
		filter:     filter,
		maxLength:  maxLength,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// HandleText interprets a line of text sent by sender. A banned sender is
// refused before the text is parsed, commands included. A non-nil error means
// storage failed and nothing was applied.
func (i *Interpreter) HandleText(ctx context.Context, sender, text string) (Outcome, error) {
	if out, refused, err := i.refuseBanned(ctx, sender); refused || err != nil {
		return out, err
	}

	in := Parse(text)
	if in.Verb == VerbSay {
		return i.say(ctx, sender, text)
	}

	if !i.authorized.Contains(sender) {
		return private(coreError(ErrCodeUnauthorized, "You do not have permission to execute commands")), nil
	}
	if !in.Valid() {
		return private(coreError(ErrCodeMalformed, "Invalid command or arguments")), nil
	}

	switch in.Verb {
	case VerbDelete:
		id, err := strconv.ParseInt(in.Args[0], 10, 64)
		if err != nil || id <= 0 {
			return private(coreError(ErrCodeMalformed, "Invalid command or arguments")), nil
		}
		return i.deleteMessage(ctx, sender, id)
	case VerbBan:
		return i.ban(ctx, sender, in.Args[0])
	case VerbUnban:
		return i.unban(ctx, sender, in.Args[0])
	default:
		return private(coreError(ErrCodeMalformed, "Invalid command or arguments")), nil
	}
}

// HandleDelete is the delete_message shortcut, equivalent to /delete <id>.
func (i *Interpreter) HandleDelete(ctx context.Context, sender string, id int64) (Outcome, error) {
	if out, refused, err := i.refuseBanned(ctx, sender); refused || err != nil {
		return out, err
	}
	if !i.authorized.Contains(sender) {
		return private(coreError(ErrCodeUnauthorized, "You do not have permission to delete messages")), nil
	}
	if id <= 0 {
		return private(coreError(ErrCodeMalformed, "Invalid command or arguments")), nil
	}
	return i.deleteMessage(ctx, sender, id)
}

func (i *Interpreter) refuseBanned(ctx context.Context, sender string) (Outcome, bool, error) {
	banned, err := i.bans.IsBanned(ctx, sender)
	if err != nil {
		return Outcome{}, false, storageError("check ban", err)
	}
	if banned {
		return private(coreError(ErrCodeBanned, "You are banned from chatting.")), true, nil
	}
	return Outcome{}, false, nil
}

func (i *Interpreter) say(ctx context.Context, sender, text string) (Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return private(coreError(ErrCodeMalformed, "Message cannot be empty")), nil
	}
	if utf8.RuneCountInString(text) > i.maxLength {
		return private(coreError(ErrCodeMalformed, fmt.Sprintf("Message exceeds %d characters", i.maxLength))), nil
	}
	if i.filter != nil {
		text = i.filter.Censor(text)
	}

	stored, err := i.messages.AppendMessage(ctx, sender, text, i.now())
	if err != nil {
		return Outcome{}, storageError("append message", err)
	}
	return Outcome{Public: []*Event{messageEvent(messageFromStore(stored))}}, nil
}

func (i *Interpreter) deleteMessage(ctx context.Context, actor string, id int64) (Outcome, error) {
	existed, err := i.messages.DeleteMessage(ctx, id)
	if err != nil {
		return Outcome{}, storageError("delete message", err)
	}
	if !existed {
		return private(coreError(ErrCodeNotFound, fmt.Sprintf("Message %d not found", id))), nil
	}
	return Outcome{Public: []*Event{
		{Kind: EventMessageDeleted, MessageID: id},
		publicNotice(fmt.Sprintf("Message %d deleted by %s", id, actor)),
	}}, nil
}

func (i *Interpreter) ban(ctx context.Context, actor, target string) (Outcome, error) {
	exists, banned, err := i.lookup(ctx, target)
	if err != nil {
		return Outcome{}, err
	}
	if !exists || banned {
		code := ErrCodeAlreadyBanned
		if !exists {
			code = ErrCodeNotFound
		}
		return private(coreError(code, fmt.Sprintf("User %s is already banned or does not exist.", target))), nil
	}
	if err := i.bans.AddBan(ctx, target); err != nil {
		return Outcome{}, storageError("add ban", err)
	}
	return Outcome{Public: []*Event{
		publicNotice(fmt.Sprintf("%s has been banned by %s", target, actor)),
	}}, nil
}

func (i *Interpreter) unban(ctx context.Context, actor, target string) (Outcome, error) {
	exists, banned, err := i.lookup(ctx, target)
	if err != nil {
		return Outcome{}, err
	}
	if !exists {
		return private(coreError(ErrCodeNotFound, fmt.Sprintf("User %s does not exist.", target))), nil
	}
	if !banned {
		return private(coreError(ErrCodeNotBanned, fmt.Sprintf("User %s is not banned.", target))), nil
	}
	if err := i.bans.RemoveBan(ctx, target); err != nil {
		return Outcome{}, storageError("remove ban", err)
	}
	return Outcome{Public: []*Event{
		publicNotice(fmt.Sprintf("%s has been unbanned by %s", target, actor)),
	}}, nil
}

func (i *Interpreter) lookup(ctx context.Context, target string) (exists, banned bool, err error) {
	exists, err = i.users.Exists(ctx, target)
	if err != nil {
		return false, false, storageError("look up user", err)
	}
	banned, err = i.bans.IsBanned(ctx, target)
	if err != nil {
		return false, false, storageError("check ban", err)
	}
	return exists, banned, nil
}
