package actuators

import (
	"context"
	"fmt"
	"strings"
)

// The helpers below synthesize a python script for one document-generation
// shape and run it through Execute. They are adapter-level convenience —
// the core's python tool only ever sees {code, save_to, task_type}; these
// exist so a caller (the Tool Dispatcher) can offer a task_type shortcut
// instead of asking the model to hand-write boilerplate every time.

// GenerateReport writes a multi-section document to outPath using
// python-docx, one paragraph per section title/body pair.
func (in *Interpreter) GenerateReport(ctx context.Context, title, outPath string, sections [][2]string) (InterpreterResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "from docx import Document\n")
	fmt.Fprintf(&b, "doc = Document()\n")
	fmt.Fprintf(&b, "doc.add_heading(%q, level=0)\n", title)
	for _, s := range sections {
		fmt.Fprintf(&b, "doc.add_heading(%q, level=1)\n", s[0])
		fmt.Fprintf(&b, "doc.add_paragraph(%q)\n", s[1])
	}
	fmt.Fprintf(&b, "doc.save(%q)\n", outPath)
	fmt.Fprintf(&b, "print('created: %s')\n", outPath)
	return in.Execute(ctx, b.String(), outPath)
}

// GenerateChart plots a single series with matplotlib and saves it as a PNG.
func (in *Interpreter) GenerateChart(ctx context.Context, title, outPath string, labels []string, values []float64) (InterpreterResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "import matplotlib\nmatplotlib.use('Agg')\nimport matplotlib.pyplot as plt\n")
	fmt.Fprintf(&b, "labels = %s\n", pyStringList(labels))
	fmt.Fprintf(&b, "values = %s\n", pyFloatList(values))
	fmt.Fprintf(&b, "plt.figure(figsize=(8, 5))\nplt.bar(labels, values)\nplt.title(%q)\n", title)
	fmt.Fprintf(&b, "plt.tight_layout()\nplt.savefig(%q, dpi=150)\n", outPath)
	fmt.Fprintf(&b, "print('created: %s')\n", outPath)
	return in.Execute(ctx, b.String(), outPath)
}

// GeneratePresentation writes one slide per title/body pair via python-pptx.
func (in *Interpreter) GeneratePresentation(ctx context.Context, outPath string, slides [][2]string) (InterpreterResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "from pptx import Presentation\n")
	fmt.Fprintf(&b, "prs = Presentation()\nlayout = prs.slide_layouts[1]\n")
	for _, s := range slides {
		fmt.Fprintf(&b, "slide = prs.slides.add_slide(layout)\n")
		fmt.Fprintf(&b, "slide.shapes.title.text = %q\n", s[0])
		fmt.Fprintf(&b, "slide.placeholders[1].text = %q\n", s[1])
	}
	fmt.Fprintf(&b, "prs.save(%q)\n", outPath)
	fmt.Fprintf(&b, "print('created: %s')\n", outPath)
	return in.Execute(ctx, b.String(), outPath)
}

// GenerateSpreadsheet writes rows (first row treated as header) to a sheet
// via openpyxl.
func (in *Interpreter) GenerateSpreadsheet(ctx context.Context, outPath string, rows [][]string) (InterpreterResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "from openpyxl import Workbook\n")
	fmt.Fprintf(&b, "wb = Workbook()\nws = wb.active\n")
	for _, row := range rows {
		fmt.Fprintf(&b, "ws.append(%s)\n", pyStringList(row))
	}
	fmt.Fprintf(&b, "wb.save(%q)\n", outPath)
	fmt.Fprintf(&b, "print('created: %s')\n", outPath)
	return in.Execute(ctx, b.String(), outPath)
}

// GenerateDashboard lays out several charts as subplots in one figure —
// the closest a matplotlib-only stack gets to a "dashboard" without pulling
// in a browser-rendered charting library.
func (in *Interpreter) GenerateDashboard(ctx context.Context, title, outPath string, panels map[string][]float64) (InterpreterResult, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "import matplotlib\nmatplotlib.use('Agg')\nimport matplotlib.pyplot as plt\n")
	fmt.Fprintf(&b, "fig, axes = plt.subplots(1, %d, figsize=(%d, 4))\n", len(panels), 4*maxInt(1, len(panels)))
	fmt.Fprintf(&b, "fig.suptitle(%q)\n", title)
	i := 0
	for name, values := range panels {
		ax := "axes" + fmt.Sprintf("[%d]", i)
		if len(panels) == 1 {
			ax = "axes"
		}
		fmt.Fprintf(&b, "%s.plot(%s)\n%s.set_title(%q)\n", ax, pyFloatList(values), ax, name)
		i++
	}
	fmt.Fprintf(&b, "plt.tight_layout()\nplt.savefig(%q, dpi=150)\n", outPath)
	fmt.Fprintf(&b, "print('created: %s')\n", outPath)
	return in.Execute(ctx, b.String(), outPath)
}

func pyStringList(items []string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = fmt.Sprintf("%q", it)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func pyFloatList(items []float64) string {
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
