package render

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/matzehuels/synthroute/pkg/errors"
)

// ConverterEnv names the environment variable that overrides the
// rsvg-convert binary.
const ConverterEnv = "SYNTHROUTE_RSVG_CONVERT"

// Converter returns the rsvg-convert binary to use.
func Converter() string {
	if bin := os.Getenv(ConverterEnv); bin != "" {
		return bin
	}
	return "rsvg-convert"
}

// Available reports whether the converter can be found.
func Available() bool {
	_, err := exec.LookPath(Converter())
	return err == nil
}

// ToPDF converts an SVG to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, "pdf")
}

// ToPNG converts an SVG to PNG. A scale of 2 doubles the resolution.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convert(ctx, svg, "png", "--zoom", strconv.FormatFloat(scale, 'f', 2, 64))
}

func convert(ctx context.Context, svg []byte, format string, extra ...string) ([]byte, error) {
	bin := Converter()
	if _, err := exec.LookPath(bin); err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export needs %s (librsvg): brew install librsvg, or apt install librsvg2-bin", strings.ToUpper(format), bin)
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"--format", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "%s: %s", bin, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
