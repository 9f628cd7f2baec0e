package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/internal/render"
	"github.com/iamvkosarev/mednote/internal/usecase"
	"github.com/iamvkosarev/mednote/pkg/local"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

type command string

const (
	cmdRecord   = command("record")
	cmdStop     = command("stop")
	cmdCancel   = command("cancel")
	cmdDiagnose = command("diagnose")
	cmdChat     = command("chat")
	cmdHistory  = command("history")
	cmdShow     = command("show")
	cmdDelete   = command("delete")
	cmdStats    = command("stats")
	cmdLanguage = command("language")
	cmdNew      = command("new")
	cmdHelp     = command("help")
	cmdQuit     = command("quit")
)

var commandAliases = map[string]command{
	"record": cmdRecord, "gravar": cmdRecord, "r": cmdRecord,
	"stop": cmdStop, "parar": cmdStop, "s": cmdStop,
	"cancel": cmdCancel, "cancelar": cmdCancel,
	"diagnose": cmdDiagnose, "diagnosticar": cmdDiagnose, "d": cmdDiagnose,
	"chat": cmdChat, "c": cmdChat,
	"history": cmdHistory, "historico": cmdHistory, "h": cmdHistory,
	"show": cmdShow, "ver": cmdShow,
	"delete": cmdDelete, "apagar": cmdDelete,
	"stats": cmdStats, "estatisticas": cmdStats,
	"language": cmdLanguage, "idioma": cmdLanguage, "lang": cmdLanguage,
	"new": cmdNew, "nova": cmdNew,
	"help": cmdHelp, "ajuda": cmdHelp, "?": cmdHelp,
	"quit": cmdQuit, "sair": cmdQuit, "exit": cmdQuit, "q": cmdQuit,
}

// failureKeys name the message shown when a command fails without a more
// specific reason.
var failureKeys = map[command]string{
	cmdHistory: local.KeyHistoryError,
	cmdShow:    local.KeyHistoryError,
	cmdStats:   local.KeyHistoryError,
	cmdDelete:  local.KeyDeleteError,
}

type ConsoleDeps struct {
	Consultations *usecase.ConsultationUsecase
	History       *usecase.HistoryUsecase
	Chat          *usecase.AiChatUsecase
	Language      *usecase.LanguageUsecase
	Renderer      *render.Renderer
	Logger        *logging.Logger
}

// Console is the line-oriented front end. Every command ends back at the
// prompt; failures are printed and never end the session.
type Console struct {
	ConsoleDeps
	in  io.Reader
	out io.Writer

	lang    local.Language
	current *model.Consultation
	chatID  uuid.UUID
}

func NewConsole(deps ConsoleDeps, in io.Reader, out io.Writer) *Console {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	return &Console{
		ConsoleDeps: deps,
		in:          in,
		out:         out,
		lang:        local.Primary,
	}
}

func (c *Console) Run(ctx context.Context) error {
	c.lang = c.Language.Current(ctx)
	c.println(c.Renderer.Text(local.KeyAppTitle, c.lang) + " - " + c.Renderer.Text(local.KeyAppSubtitle, c.lang))
	if !c.Consultations.IsRecordingSupported() {
		c.println(c.Renderer.Text(local.KeyAudioNotSupported, c.lang))
	}
	c.println(c.Renderer.Text(local.KeyHelp, c.lang))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	defer c.shutdown()
	for {
		c.prompt()
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := c.handle(ctx, line); quit {
				return nil
			}
		}
	}
}

func (c *Console) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	cmd, ok := commandAliases[strings.ToLower(name)]
	if !ok {
		c.println(c.Renderer.Text(local.KeyUnknownCommand, c.lang))
		return false
	}

	var err error
	switch cmd {
	case cmdRecord:
		err = c.record(ctx)
	case cmdStop:
		err = c.stop(ctx)
	case cmdCancel:
		c.Consultations.CancelRecording()
		c.println(c.Renderer.Text(local.KeyRecordingCancelled, c.lang))
	case cmdDiagnose:
		err = c.diagnose(ctx, arg)
	case cmdChat:
		err = c.chat(ctx, arg)
	case cmdHistory:
		err = c.history(ctx)
	case cmdShow:
		err = c.show(ctx, arg)
	case cmdDelete:
		err = c.delete(ctx, arg)
	case cmdStats:
		err = c.stats(ctx)
	case cmdLanguage:
		err = c.toggleLanguage(ctx)
	case cmdNew:
		c.resetConsultation(ctx)
		c.println(c.Renderer.Text(local.KeyNewConsultation, c.lang))
	case cmdHelp:
		c.println(c.Renderer.Text(local.KeyHelp, c.lang))
	case cmdQuit:
		return true
	}
	if err != nil {
		c.Logger.Warn("command failed", "command", string(cmd), "error", err)
		c.println(c.Renderer.FailureMessage(err, failureKeys[cmd], c.lang))
	}
	return false
}

func (c *Console) record(ctx context.Context) error {
	if err := c.Consultations.StartRecording(ctx); err != nil {
		return err
	}
	c.resetConsultation(ctx)
	c.println(c.Renderer.Text(local.KeyRecording, c.lang))
	return nil
}

func (c *Console) stop(ctx context.Context) error {
	c.println(c.Renderer.Text(local.KeyTranscribing, c.lang))
	transcript, err := c.Consultations.StopAndTranscribe(ctx)
	if err != nil {
		return err
	}
	return c.diagnose(ctx, transcript)
}

func (c *Console) diagnose(ctx context.Context, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return model.ErrEmptyTranscript
	}
	c.print(c.Renderer.Transcript(transcript, c.lang))
	c.println(c.Renderer.Text(local.KeyAnalyzing, c.lang))
	consultation, err := c.Consultations.Diagnose(ctx, transcript)
	if err != nil {
		return err
	}
	c.resetConsultation(ctx)
	c.current = &consultation
	c.print(c.Renderer.Diagnosis(consultation.Result, c.lang))
	return nil
}

func (c *Console) chat(ctx context.Context, question string) error {
	if c.current == nil {
		c.println(c.Renderer.Text(local.KeyNeedsConsultation, c.lang))
		return nil
	}
	if c.chatID == uuid.Nil {
		chat, err := c.Chat.Open(ctx, model.ChatContext{
			Transcript: c.current.Transcript,
			Result:     c.current.Result,
		}, c.lang)
		if err != nil {
			return err
		}
		c.chatID = chat.ChatID
		c.print(c.Renderer.Chat(chat, c.lang))
	}
	if question == "" {
		return nil
	}
	reply, err := c.Chat.Send(ctx, c.chatID, question)
	if err != nil {
		return err
	}
	c.print(c.Renderer.Message(reply, c.lang))
	return nil
}

func (c *Console) history(ctx context.Context) error {
	consultations, err := c.History.List(ctx)
	if err != nil {
		return err
	}
	c.print(c.Renderer.History(consultations, c.lang))
	return nil
}

func (c *Console) show(ctx context.Context, id string) error {
	consultation, err := c.History.Get(ctx, id)
	if err != nil {
		return err
	}
	// the shown record becomes the one the chat talks about
	c.resetConsultation(ctx)
	c.current = &consultation
	c.print(c.Renderer.Consultation(consultation, c.lang))
	return nil
}

func (c *Console) delete(ctx context.Context, id string) error {
	if err := c.History.Delete(ctx, id); err != nil {
		return err
	}
	c.println(c.Renderer.Text(local.KeyConsultationDeleted, c.lang))
	return nil
}

func (c *Console) stats(ctx context.Context) error {
	stats, err := c.History.Stats(ctx)
	if err != nil {
		return err
	}
	c.print(c.Renderer.Stats(stats, c.lang))
	return nil
}

func (c *Console) toggleLanguage(ctx context.Context) error {
	next, err := c.Language.Toggle(ctx)
	c.lang = next
	c.println(c.Renderer.Text(local.KeyLanguageSelected, c.lang))
	return err
}

// resetConsultation forgets the current consultation and its chat.
func (c *Console) resetConsultation(ctx context.Context) {
	if c.chatID != uuid.Nil {
		if err := c.Chat.Close(ctx, c.chatID); err != nil {
			c.Logger.Warn("failed to close chat", "chat_id", c.chatID, "error", err)
		}
	}
	c.chatID = uuid.Nil
	c.current = nil
}

func (c *Console) shutdown() {
	c.Consultations.CancelRecording()
	c.resetConsultation(context.Background())
}

func (c *Console) prompt() {
	marker := "> "
	if c.Consultations.IsRecording() {
		marker = "● "
	}
	c.print(marker)
}

func (c *Console) print(s string) {
	_, _ = fmt.Fprint(c.out, s)
}

func (c *Console) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}
