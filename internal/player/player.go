package player

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Result summarises one playback session. Completed is only claimed when
// the player reported a total length and playback got close to it;
// otherwise the episode keeps its resume position.
type Result struct {
	PositionSeconds int
	Completed       bool
}

// completedRatio is how far into an episode playback must get before the
// episode counts as finished. Outros and trailing ads mean users rarely
// listen to the literal last second.
const completedRatio = 0.95

// Player runs an external audio player and tracks the playback position
// from its status output.
type Player struct {
	command string
}

// New creates a player around a command template. The template is split
// with shell quoting rules; {file} and {position} are substituted into
// the resulting arguments.
func New(command string) *Player {
	return &Player{command: command}
}

// Play runs the player for one file, starting at startSeconds, and blocks
// until the player exits. The final position is read from the player's
// status lines; a player that prints none yields the start position back.
func (p *Player) Play(ctx context.Context, file string, startSeconds int) (Result, error) {
	argv, err := buildArgs(p.command, file, startSeconds)
	if err != nil {
		return Result{}, err
	}
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("empty player command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return Result{}, err
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start player: %w", err)
	}

	position, total := trackProgress(stdout)
	waitErr := cmd.Wait()

	result := Result{PositionSeconds: startSeconds}
	if position > 0 {
		result.PositionSeconds = position
	}
	if total > 0 && float64(position) >= completedRatio*float64(total) {
		result.Completed = true
		result.PositionSeconds = 0
	}

	if waitErr != nil && ctx.Err() == nil && !result.Completed {
		return result, fmt.Errorf("player exited: %w", waitErr)
	}
	return result, nil
}

func buildArgs(template, file string, position int) ([]string, error) {
	parts, err := shellquote.Split(template)
	if err != nil {
		return nil, fmt.Errorf("parse player command: %w", err)
	}
	argv := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.ReplaceAll(part, "{file}", file)
		part = strings.ReplaceAll(part, "{position}", strconv.Itoa(position))
		argv = append(argv, part)
	}
	return argv, nil
}

// trackProgress consumes the player's output until EOF, remembering the
// last position and total it saw.
func trackProgress(r io.Reader) (position, total int) {
	scanner := bufio.NewScanner(r)
	scanner.Split(scanStatusLines)
	for scanner.Scan() {
		if pos, tot, ok := parseStatusLine(scanner.Text()); ok {
			position = pos
			if tot > 0 {
				total = tot
			}
		}
	}
	return position, total
}

// scanStatusLines splits on both newlines and carriage returns; players
// redraw their status line in place with bare \r.
func scanStatusLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var timestampPattern = regexp.MustCompile(`(\d+):([0-5]\d)(?::([0-5]\d))?`)

// parseStatusLine reads the first two timestamps of a status line as
// position and total, e.g. mpv's "AV: 00:01:23 / 01:02:03 (2%)".
func parseStatusLine(line string) (position, total int, ok bool) {
	matches := timestampPattern.FindAllStringSubmatch(line, 2)
	if len(matches) == 0 {
		return 0, 0, false
	}
	position = timestampSeconds(matches[0])
	if len(matches) > 1 {
		total = timestampSeconds(matches[1])
	}
	return position, total, true
}

func timestampSeconds(match []string) int {
	first, _ := strconv.Atoi(match[1])
	second, _ := strconv.Atoi(match[2])
	if match[3] == "" {
		return first*60 + second
	}
	third, _ := strconv.Atoi(match[3])
	return first*3600 + second*60 + third
}
