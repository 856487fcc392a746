package support

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/aprilgo/apriltag/internal/family"
	"github.com/aprilgo/apriltag/internal/imagebuf"
	"github.com/aprilgo/apriltag/internal/imageio"
	"github.com/aprilgo/apriltag/internal/testutilx"
	"github.com/cucumber/godog"
)

// RegisterSteps wires every step this suite defines into sc.
func (testCtx *TestContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a synthetic image "([^"]*)" with a centered tag36h11 code id (\d+)$`, testCtx.aCenteredTagImage)
	sc.Step(`^a synthetic image "([^"]*)" with a decoy quad and no valid codeword$`, testCtx.aDecoyQuadImage)
	sc.Step(`^I run "([^"]*)"$`, testCtx.iRunCommand)
	sc.Step(`^the command should succeed$`, testCtx.theCommandShouldSucceed)
	sc.Step(`^the command should fail$`, testCtx.theCommandShouldFail)
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should be a JSON array with (\d+) detection\(s\)$`, testCtx.theOutputShouldHaveNDetections)
}

// aCenteredTagImage renders a centered tag36h11 code and registers its
// path under name for later substitution in "I run" steps.
func (testCtx *TestContext) aCenteredTagImage(name string, id int) error {
	fam := family.Tag36h11
	if id < 0 || id >= len(fam.Codes) {
		return fmt.Errorf("id %d out of range for tag36h11 (%d codes)", id, len(fam.Codes))
	}
	img, _ := testutilx.RenderCenteredTag(fam, id, 512, 8)
	defer img.Release()

	path := testCtx.TempFile(name)
	if err := writePNG(path, img); err != nil {
		return err
	}
	testCtx.TrackFile(path)
	testCtx.fixtures()[name] = path
	return nil
}

// aDecoyQuadImage renders a dark square frame with a uniform light
// interior: a plausible quad candidate that carries no valid codeword.
func (testCtx *TestContext) aDecoyQuadImage(name string) error {
	img := testutilx.NewBlankImage(256, 256, 255)
	defer img.Release()

	const (
		outer = 60
		inner = 120
		ring  = 16
	)
	for y := outer; y < outer+inner; y++ {
		for x := outer; x < outer+inner; x++ {
			onBorder := x < outer+ring || x >= outer+inner-ring || y < outer+ring || y >= outer+inner-ring
			if onBorder {
				img.Set(x, y, 0)
			}
		}
	}

	path := testCtx.TempFile(name)
	if err := writePNG(path, img); err != nil {
		return err
	}
	testCtx.TrackFile(path)
	testCtx.fixtures()[name] = path
	return nil
}

func writePNG(path string, img *imagebuf.Image8) error {
	f, err := os.Create(path) //nolint:gosec // G304: scenario-controlled temp path
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()
	return imageio.WritePNG(f, img)
}

// iRunCommand substitutes any registered fixture names (quoted in the
// command as bare tokens) and runs the CLI binary.
func (testCtx *TestContext) iRunCommand(command string) error {
	command = strings.ReplaceAll(command, "apriltag ", testCtx.BinPath+" ")
	for name, path := range testCtx.fixtures() {
		command = strings.ReplaceAll(command, name, path)
	}

	testCtx.LastCommand = command
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return errors.New("empty command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...) //nolint:gosec // G204: fixed test binary, scenario-controlled args
	cmd.Dir = testCtx.WorkingDir
	cmd.Env = append(os.Environ(), testCtx.EnvVars...)

	output, err := cmd.CombinedOutput()
	testCtx.LastOutput = string(output)
	testCtx.LastErr = err
	testCtx.LastExitCode = 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			testCtx.LastExitCode = exitErr.ExitCode()
		} else {
			return fmt.Errorf("failed to execute %s: %w", command, err)
		}
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldSucceed() error {
	if testCtx.LastExitCode != 0 {
		return fmt.Errorf("command %q failed with exit code %d: %w\noutput: %s",
			testCtx.LastCommand, testCtx.LastExitCode, testCtx.LastErr, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theCommandShouldFail() error {
	if testCtx.LastExitCode == 0 {
		return fmt.Errorf("command %q succeeded when it should have failed\noutput: %s",
			testCtx.LastCommand, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(testCtx.LastOutput, expected) {
		return fmt.Errorf("output does not contain %q\nactual output: %s", expected, testCtx.LastOutput)
	}
	return nil
}

// theOutputShouldHaveNDetections parses the first JSON array found on
// stdout (preceding any stderr that CombinedOutput interleaved) and
// checks its length.
func (testCtx *TestContext) theOutputShouldHaveNDetections(n int) error {
	trimmed := strings.TrimSpace(testCtx.LastOutput)
	start := strings.IndexByte(trimmed, '[')
	if start == -1 {
		return fmt.Errorf("no JSON array found in output: %s", testCtx.LastOutput)
	}
	depth := 0
	end := -1
	for i := start; i < len(trimmed); i++ {
		switch trimmed[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return fmt.Errorf("unterminated JSON array in output: %s", testCtx.LastOutput)
	}

	var dets []json.RawMessage
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &dets); err != nil {
		return fmt.Errorf("output is not a valid JSON array: %w\njson: %s", err, trimmed[start:end+1])
	}
	if len(dets) != n {
		return fmt.Errorf("expected %d detection(s), got %d: %s", n, len(dets), trimmed[start:end+1])
	}
	return nil
}
