package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"baymax/internal/assistant"
	"baymax/internal/audio"
	"baymax/internal/logging"
	"baymax/internal/orchestrator"

	"github.com/spf13/cobra"
)

var (
	askRAG   bool
	askNoRAG bool
	askVoice string
	askSpeak bool
	askOut   string
)

// askCmd asks the assistant one question from the command line
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the assistant a single question",
	Long: `Sends one question to the assistant service and prints the
answer, followed by its sources when retrieval was used. Retrieval
follows the config default; --rag forces it on and --no-rag asks the
model directly.

With --speak the synthesized answer is played through the local audio
player; --out writes the MP3 to a file instead of playing it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askRAG, "rag", false, "Use knowledge retrieval even when the config disables it")
	askCmd.Flags().BoolVar(&askNoRAG, "no-rag", false, "Skip knowledge retrieval and ask the model directly")
	askCmd.Flags().StringVar(&askVoice, "voice", "", "Voice mode for speech: pro, max, kids (default from config)")
	askCmd.Flags().BoolVar(&askSpeak, "speak", false, "Play the spoken answer")
	askCmd.Flags().StringVar(&askOut, "out", "", "Write the spoken answer to an MP3 file")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	question := strings.Join(args, " ")
	useRetrieval := cfg.Chat.UseRetrieval
	if askRAG {
		useRetrieval = true
	}
	if askNoRAG {
		useRetrieval = false
	}
	voice := askVoice
	if voice == "" {
		voice = cfg.Chat.VoiceMode
	}

	client := assistant.NewClient(cfg.Assistant.BaseURL)

	// Text-only path: print the answer and its citation line
	if !askSpeak && askOut == "" {
		ans, err := client.Ask(ctx, question, useRetrieval)
		if err != nil {
			return err
		}
		fmt.Println(ans.Text)
		if len(ans.Sources) > 0 {
			fmt.Println(orchestrator.SourcesLabel + strings.Join(ans.Sources, ", "))
		}
		return nil
	}

	display := &consoleDisplay{out: os.Stdout, outPath: askOut}
	if askOut == "" {
		display.player = audio.NewPlayer(cfg.Chat.Player, logging.Component(logger, "audio"))
	}

	orch := orchestrator.New(client, display, logging.Component(logger, "orchestrator"))
	if err := orch.Submit(ctx, question, useRetrieval, voice); err != nil {
		return err
	}
	if display.player != nil {
		display.player.Wait()
	}
	return display.Err()
}

// consoleDisplay adapts the plain terminal to the query cycle display
// contract: answers and citations go to stdout, the audio clip goes to
// the player or an output file, and the final status decides the exit
// code.
type consoleDisplay struct {
	out     io.Writer
	outPath string
	player  *audio.Player

	lastStatus string
	clipErr    error
}

func (d *consoleDisplay) SetBusy(bool) {}

func (d *consoleDisplay) SetStatus(text string) {
	d.lastStatus = text
}

func (d *consoleDisplay) ShowAnswer(text string) {
	fmt.Fprintln(d.out, text)
}

func (d *consoleDisplay) SetSources(line string) {
	if line != "" {
		fmt.Fprintln(d.out, line)
	}
}

func (d *consoleDisplay) SetAudio(clip *audio.Clip) {
	if clip == nil {
		return
	}
	if d.outPath != "" {
		d.clipErr = os.WriteFile(d.outPath, clip.Data, 0644)
		return
	}
	if d.player != nil {
		d.clipErr = d.player.Play(clip)
	}
}

// Err translates the finished cycle into a command result: an error
// status or a failed clip write becomes a non-zero exit.
func (d *consoleDisplay) Err() error {
	if d.clipErr != nil {
		return d.clipErr
	}
	if strings.HasPrefix(d.lastStatus, orchestrator.ErrorPrefix) {
		return errors.New(strings.TrimPrefix(d.lastStatus, orchestrator.ErrorPrefix))
	}
	return nil
}
