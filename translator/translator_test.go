package translator

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vba2py/lang"
)

var bare = Options{Indent: "    "}

func translate(t *testing.T, src string) (string, []lang.Diagnostic) {
	t.Helper()
	out, diags, err := TranslateSource(src, bare)
	require.NoError(t, err)
	return out, diags
}

func violation(t *testing.T, src string) *ContractViolation {
	t.Helper()
	out, _, err := TranslateSource(src, bare)
	require.Error(t, err)
	assert.Empty(t, out)
	cv, ok := err.(*ContractViolation)
	require.True(t, ok, "expected a contract violation, got %T: %v", err, err)
	return cv
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestTranslateLoopProgram(t *testing.T) {
	src := "Dim i As Long\nFor i = 1 To 2\n    Debug.Print i\nNext i"
	out, diags, err := TranslateSource(src, DefaultOptions())
	require.NoError(t, err)
	assert.Empty(t, diags)
	want := lines(
		"from vba_runtime import *",
		"",
		"i = 0",
		"for i in range(1, 3):",
		"    Debug.Print(i)",
	)
	if diff := cmp.Diff(want, out); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestTranslateIsDeterministic(t *testing.T) {
	src := `Option Explicit
Dim total As Long

Function Sum(ByVal n As Long) As Long
    Dim i As Long
    For i = 1 To n
        Sum = Sum + i
    Next
End Function

Sub Fill()
    On Error GoTo Fail
    With Sheets("A")
        .Range("A1").Value = Sum(3)
        With .Font
            .Bold = True
        End With
    End With
    total = total + 1
Fail:
    x = a Like "b"
End Sub
`
	prog, err := lang.Parse(src)
	require.NoError(t, err)
	first, firstDiags, err := Translate(prog, DefaultOptions())
	require.NoError(t, err)
	second, secondDiags, err := Translate(prog, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, firstDiags, secondDiags)
	assert.Contains(t, first, "with vba_with(_with1.Font) as _with2:")
}

func TestForRange(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"For i = 1 To 3\nNext", "for i in range(1, 4):"},
		{"For i = 0 To 10 Step 2\nNext", "for i in range(0, 11, 2):"},
		{"For i = 10 To 1 Step -1\nNext", "for i in range(10, 0, -1):"},
		{"For i = 1 To n\nNext", "for i in range(1, n + 1):"},
		{"For i = 1 To n - 1\nNext", "for i in range(1, n - 1 + 1):"},
		{"For i = n To 1 Step -2\nNext", "for i in range(n, 0, -2):"},
		{"For i = n To m Step -1\nNext", "for i in range(n, m - 1, -1):"},
		{"For i = a To b Step s\nNext", "for i in range(a, b + (1 if s > 0 else -1), s):"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			out, _ := translate(t, tt.src)
			assert.Equal(t, lines(tt.want, "    pass"), out)
		})
	}
}

var rangeCall = regexp.MustCompile(`range\((-?\d+), (-?\d+)(?:, (-?\d+))?\)`)

// pyRange mirrors Python's range for the literal forms the translator emits.
func pyRange(t *testing.T, header string) []int {
	t.Helper()
	m := rangeCall.FindStringSubmatch(header)
	require.NotNil(t, m, header)
	start, _ := strconv.Atoi(m[1])
	stop, _ := strconv.Atoi(m[2])
	step := 1
	if m[3] != "" {
		step, _ = strconv.Atoi(m[3])
	}
	var out []int
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		out = append(out, i)
	}
	return out
}

func TestForRangeVisitsInclusiveBounds(t *testing.T) {
	tests := []struct {
		src  string
		want []int
	}{
		{"For i = 1 To 3\nNext", []int{1, 2, 3}},
		{"For i = 3 To 1 Step -1\nNext", []int{3, 2, 1}},
		{"For i = 0 To 10 Step 5\nNext", []int{0, 5, 10}},
		{"For i = 5 To 5\nNext", []int{5}},
		{"For i = 2 To 1\nNext", nil},
	}
	for _, tt := range tests {
		out, _ := translate(t, tt.src)
		assert.Equal(t, tt.want, pyRange(t, out), tt.src)
	}
}

func TestLoopLowering(t *testing.T) {
	body := "    x = x + 1\n"
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"do while", "Do While x < 3\n" + body + "Loop", lines("while x < 3:", "    x = x + 1")},
		{"do until", "Do Until x >= 3\n" + body + "Loop", lines("while not (x >= 3):", "    x = x + 1")},
		{"loop while", "Do\n" + body + "Loop While x < 3", lines(
			"while True:",
			"    x = x + 1",
			"    if not (x < 3):",
			"        break",
		)},
		{"loop until", "Do\n" + body + "Loop Until x >= 3", lines(
			"while True:",
			"    x = x + 1",
			"    if x >= 3:",
			"        break",
		)},
		{"while wend", "While x < 3\n" + body + "Wend", lines("while x < 3:", "    x = x + 1")},
		{"do forever", "Do\n" + body + "    If x > 9 Then Exit Do\nLoop", lines(
			"while True:",
			"    x = x + 1",
			"    if x > 9: break",
		)},
		{"until not", "Do Until Not done\n" + body + "Loop", lines("while done:", "    x = x + 1")},
		{"for each", "For Each c In cells\n    n = n + c\nNext c", lines("for c in cells:", "    n = n + c")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := translate(t, tt.src)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestArraysAndCalls(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"declared array is indexed",
			"Dim A(1 To 3)\nA(2) = \"x\"\ny = F(2)",
			lines(`A = [None for _ in range(4)]`, `A[2] = "x"`, `y = F(2)`),
		},
		{
			"multi-dimensional",
			"Dim M(2, 3) As Long\nM(1, 2) = 5\nv = M(1, 2)",
			lines("M = [[0 for _ in range(4)] for _ in range(3)]", "M[1][2] = 5", "v = M[1][2]"),
		},
		{
			"option base one",
			"Option Base 1\nDim A(3) As Long",
			lines("A = [0 for _ in range(4)]"),
		},
		{
			"dynamic bound",
			"Dim A(1 To n)",
			lines("A = [None for _ in range(n + 1)]"),
		},
		{
			"chained call result is indexed",
			"v = G(1)(2)",
			lines("v = G(1)[2]"),
		},
		{
			"call-shaped target",
			"Cells(1, 2) = 3",
			lines("Cells[1][2] = 3"),
		},
		{
			"redim preserve",
			"Dim A() As Long\nReDim Preserve A(5)",
			lines("A = []", "A = (A + [0 for _ in range(6)])[:6]"),
		},
		{
			"redim",
			"ReDim B(2) As String",
			lines(`B = ["" for _ in range(3)]`),
		},
		{
			"named and omitted arguments",
			"Foo a, , b:=2",
			lines("Foo(a, None, b=2)"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := translate(t, tt.src)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestDeclarations(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"Dim s As String", `s = ""`},
		{"Dim n%", "n = 0"},
		{"Dim d As Double", "d = 0.0"},
		{"Dim f As Boolean", "f = False"},
		{"Dim c As New Collection", "c = Collection()"},
		{"Dim v", "v = None"},
		{"Dim o As Object", "o = None"},
		{"Dim buf() As Byte", "buf = []"},
		{"Const Pi = 3.14", "Pi = 3.14"},
		{"Dim [My Var] As Long", "My_Var = 0"},
		{"Dim a As Long, b As String", "a = 0\nb = \"\""},
		{"Set d = New Scripting.Dictionary", `d = CreateObject("Scripting.Dictionary")`},
	}
	for _, tt := range tests {
		out, _ := translate(t, tt.src)
		assert.Equal(t, tt.want+"\n", out, tt.src)
	}
}

func TestDeclaredNamesReuseSpelling(t *testing.T) {
	out, _ := translate(t, "Dim Total As Long\ntotal = TOTAL + 1")
	assert.Equal(t, lines("Total = 0", "Total = Total + 1"), out)
}

func TestDeclaredSetIsPerProcedure(t *testing.T) {
	src := `Dim g As Long
Sub A()
    Dim x As Long
    x = 1
End Sub
Sub B()
    y = x(1)
End Sub`
	out, _ := translate(t, src)
	assert.Equal(t, lines(
		"g = 0",
		"def A():",
		"    x = 0",
		"    x = 1",
		"def B():",
		"    y = x(1)",
	), out)
}

func TestScopeTracking(t *testing.T) {
	tr := &translator{opts: bare, ctx: newContext(), prevSimple: -1}
	prog, err := lang.Parse("Dim a As String\nb = 1")
	require.NoError(t, err)
	for _, s := range prog.Body {
		tr.genStmt(s)
	}
	assert.Equal(t, []string{"a", "b"}, tr.ctx.globals.Names())

	local, err := lang.Parse("Dim loc As Long\nA = \"x\"")
	require.NoError(t, err)
	tr.ctx.withProcedure(&procInfo{name: "P", kind: lang.SubProc}, func() {
		for _, s := range local.Body {
			tr.genStmt(s)
		}
		_, ok := tr.ctx.active().lookup("LOC")
		assert.True(t, ok)
		assert.Equal(t, []string{"a", "b", "loc"}, tr.ctx.active().Names())
	})
	_, ok := tr.ctx.active().lookup("loc")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, tr.ctx.globals.Names())
	assert.Nil(t, tr.ctx.proc)
}

func TestScopeDefineShadows(t *testing.T) {
	s := newScope()
	first := s.declare(&symbol{Name: "Count", Type: Known(TypeLong)})
	again := s.declare(&symbol{Name: "COUNT", Type: Known(TypeString)})
	assert.Same(t, first, again)

	replaced := s.define(&symbol{Name: "count", Type: Known(TypeString)})
	got, ok := s.lookup("Count")
	require.True(t, ok)
	assert.Same(t, replaced, got)
	assert.Equal(t, []string{"count"}, s.Names())

	s.declare(&symbol{Name: "other"})
	s.truncate(1)
	_, ok = s.lookup("other")
	assert.False(t, ok)
}

func TestProcedures(t *testing.T) {
	t.Run("function accumulator", func(t *testing.T) {
		src := `Function Fact(n)
    If n <= 1 Then
        Fact = 1
    Else
        Fact = n * Fact(n - 1)
    End If
End Function`
		out, _ := translate(t, src)
		assert.Equal(t, lines(
			"def Fact(n):",
			"    Fact = None",
			"    if n <= 1:",
			"        Fact = 1",
			"    else:",
			"        Fact = n * Fact(n - 1)",
			"    return Fact",
		), out)
	})

	t.Run("typed function", func(t *testing.T) {
		src := "Public Function Twice(ByVal n As Long) As Long\n    Twice = n * 2\n    Exit Function\nEnd Function"
		out, _ := translate(t, src)
		assert.Equal(t, lines(
			"def Twice(n: int) -> int:",
			"    Twice = 0",
			"    Twice = n * 2",
			"    return Twice",
			"    return Twice",
		), out)
	})

	t.Run("parameters", func(t *testing.T) {
		src := "Sub P(a, Optional b As Long = 5, Optional c, ParamArray rest())\nEnd Sub"
		out, _ := translate(t, src)
		assert.Equal(t, lines("def P(a, b: int = 5, c=None, *rest):", "    pass"), out)
	})

	t.Run("module variables are global", func(t *testing.T) {
		src := "Dim counter As Long\nSub Bump()\n    counter = counter + 1\nEnd Sub"
		out, _ := translate(t, src)
		assert.Equal(t, lines(
			"counter = 0",
			"def Bump():",
			"    global counter",
			"    counter = counter + 1",
		), out)
	})

	t.Run("local dim shadows module variable", func(t *testing.T) {
		src := "Dim counter As Long\nSub Reset()\n    Dim counter As String\n    counter = \"\"\nEnd Sub"
		out, _ := translate(t, src)
		assert.NotContains(t, out, "global")
	})

	t.Run("exit sub", func(t *testing.T) {
		out, _ := translate(t, "Sub S()\n    If x Then Exit Sub\nEnd Sub")
		assert.Equal(t, lines("def S():", "    if x: return"), out)
	})
}

func TestInlineIf(t *testing.T) {
	out, _ := translate(t, "If a Then b = 1 Else b = 2")
	assert.Equal(t, lines("if a: b = 1", "else: b = 2"), out)

	out, _ = translate(t, "If a Then b = 1: c = 2")
	assert.Equal(t, lines("if a:", "    b = 1", "    c = 2"), out)
}

func TestBlockIf(t *testing.T) {
	src := "If a = 1 Then\n    b = 1\nElseIf a = 2 Then\nElse\n    b = 3\nEnd If"
	out, _ := translate(t, src)
	assert.Equal(t, lines(
		"if a == 1:",
		"    b = 1",
		"elif a == 2:",
		"    pass",
		"else:",
		"    b = 3",
	), out)
}

func TestWithBlocks(t *testing.T) {
	src := `With Sheet.Range("A1")
    .Value = 5
    .Font.Bold = True
    With .Interior
        .Color = vbRed
    End With
End With`
	out, _ := translate(t, src)
	assert.Equal(t, lines(
		`with vba_with(Sheet.Range("A1")) as _with1:`,
		"    _with1.Value = 5",
		"    _with1.Font.Bold = True",
		"    with vba_with(_with1.Interior) as _with2:",
		"        _with2.Color = vbRed",
	), out)
}

func TestExpressions(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"x = a Mod b", "x = a % b"},
		{`x = a \ b`, "x = a // b"},
		{"x = a <> b", "x = a != b"},
		{"x = a = b", "x = a == b"},
		{"x = Not a", "x = not a"},
		{"x = a And b Or c", "x = a and b or c"},
		{"x = a Or b And c", "x = a or b and c"},
		{"x = (a Or b) And c", "x = (a or b) and c"},
		{"x = a Is Nothing", "x = a is None"},
		{"x = 2 ^ 3", "x = 2 ** 3"},
		{"x = 2 ^ 3 ^ 2", "x = (2 ** 3) ** 2"},
		{"x = -2 ^ 2", "x = -2 ** 2"},
		{"x = a Xor b", "x = a ^ b"},
		{"x = (a + b) * c", "x = (a + b) * c"},
		{"x = a - (b - c)", "x = a - (b - c)"},
		{"x = a Mod b * c", "x = a % (b * c)"},
		{"x = a < b = c", "x = (a < b) == c"},
		{"x = &HFF", "x = 0xFF"},
		{"x = 1.5#", "x = 1.5"},
		{"x = 3#", "x = 3.0"},
		{"x = 10&", "x = 10"},
		{"x = .5", "x = 0.5"},
		{"x = True", "x = True"},
		{"x = Empty", "x = None"},
		{`x = "a""b"`, `x = "a\"b"`},
		{`x = "C:\dir"`, `x = "C:\\dir"`},
		{`msg = "n=" & n`, `msg = "n=" + str(n)`},
		{`x = a & b & "!"`, `x = str(a) + str(b) + "!"`},
		{`x = Left$(s, 1) & "."`, `x = Left(s, 1) + "."`},
	}
	for _, tt := range tests {
		out, diags := translate(t, tt.src)
		assert.Equal(t, tt.want+"\n", out, tt.src)
		assert.Empty(t, diags, tt.src)
	}
}

func TestIntegerDivisionMapsToFloorOperators(t *testing.T) {
	out, _ := translate(t, "n = -7 \\ 2\nm = -7 Mod 2")
	assert.Equal(t, lines("n = -7 // 2", "m = -7 % 2"), out)
}

func TestUnsupportedConditionReplacesWholeStatement(t *testing.T) {
	src := "Function F(a, b)\n    If a Like b Then\n        F = 1\n    End If\nEnd Function"
	out, diags := translate(t, src)
	assert.Equal(t, lines(
		"def F(a, b):",
		"    F = None",
		`    raise NotImplementedError("vba2py: unsupported operator Like (line 2)")`,
		"    return F",
	), out)
	require.Len(t, diags, 1)
	assert.Equal(t, lang.CodeUnsupported, diags[0].Code)
}

func TestStringVariablesSkipConversion(t *testing.T) {
	out, _ := translate(t, "Dim s As String\nt = s & \"x\"")
	assert.Equal(t, lines(`s = ""`, `t = s + "x"`), out)
}

func TestErrorHandlerRegion(t *testing.T) {
	src := `Sub S()
    On Error GoTo Fail
    x = 1
    y = 2
Fail:
    MsgBox "oops"
End Sub`
	out, diags := translate(t, src)
	assert.Empty(t, diags)
	assert.Equal(t, lines(
		"def S():",
		"    try:",
		"        x = 1",
		"        y = 2",
		"    except Exception as _err:",
		"        Err.capture(_err)",
		"    # Fail:",
		`    MsgBox("oops")`,
	), out)
}

func TestErrorHandlerVariants(t *testing.T) {
	t.Run("label without handler", func(t *testing.T) {
		out, _ := translate(t, "Sub S()\nSkip:\n    x = 1\nEnd Sub")
		assert.Equal(t, lines("def S():", "    # Skip:", "    x = 1"), out)
	})

	t.Run("resume next", func(t *testing.T) {
		out, _ := translate(t, "Sub S()\n    On Error Resume Next\n    x = 1\nEnd Sub")
		assert.Equal(t, lines("def S():", "    # On Error Resume Next", "    x = 1"), out)
	})

	t.Run("empty region", func(t *testing.T) {
		out, _ := translate(t, "Sub S()\n    On Error GoTo E\nE:\nEnd Sub")
		assert.Equal(t, lines(
			"def S():",
			"    try:",
			"        pass",
			"    except Exception as _err:",
			"        Err.capture(_err)",
			"    # E:",
		), out)
	})

	t.Run("goto zero closes the region", func(t *testing.T) {
		out, _ := translate(t, "Sub S()\n    On Error GoTo E\n    x = 1\n    On Error GoTo 0\nEnd Sub")
		assert.Equal(t, lines(
			"def S():",
			"    try:",
			"        x = 1",
			"    except Exception as _err:",
			"        Err.capture(_err)",
			"    # On Error GoTo 0",
		), out)
	})

	t.Run("resume next closes the region", func(t *testing.T) {
		out, _ := translate(t, "Sub S()\n    On Error GoTo E\n    x = 1\n    On Error Resume Next\n    y = 2\nEnd Sub")
		assert.Equal(t, lines(
			"def S():",
			"    try:",
			"        x = 1",
			"    except Exception as _err:",
			"        Err.capture(_err)",
			"    # On Error Resume Next",
			"    y = 2",
		), out)
	})
}

func TestContractViolations(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
		line int
	}{
		{"option base", "Option Base 2", "Option Base must be 0 or 1, got 2", 1},
		{"label mismatch", "Sub S()\nOn Error GoTo A\nB:\nEnd Sub", "label B does not match the pending error handler A", 3},
		{"nested handler", "Sub S()\nOn Error GoTo A\nOn Error GoTo B\nA:\nEnd Sub", "On Error GoTo B while the handler for A is still open", 3},
		{"unclosed handler", "Sub S()\nOn Error GoTo A\nx = 1\nEnd Sub", "error handler region for A is not closed by its label in the same block", 2},
		{"with shorthand outside with", ".Value = 1", "member shorthand .Value used outside a With block", 1},
		{"label in nested block", "Sub S()\nOn Error GoTo A\nIf x Then\nA:\nEnd If\nEnd Sub", "error handler region for A must close in the block that opened it", 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := violation(t, tt.src)
			assert.Equal(t, tt.msg, cv.Message)
			assert.Equal(t, tt.line, cv.Pos.Line)
		})
	}
}

func TestUnsupportedConstructs(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		construct string
	}{
		{"goto", "GoTo Done", "GoTo Done"},
		{"like", `x = a Like "*b"`, "operator Like"},
		{"eqv", "x = a Eqv b", "operator Eqv"},
		{"print #", `Print #1, "x"`, "file I/O (Print #)"},
		{"open", `Open "f.txt" For Input As #1`, "file I/O (Open)"},
		{"close", "Close #1", "file I/O (Close)"},
		{"resume", "Resume Next", "Resume Next"},
		{"preprocessor", "#If VBA7 Then\nx = 1\n#End If", "conditional compilation (#If)"},
		{"negative lower bound", "Dim A(-1 To 1)", "negative array lower bound"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, diags := translate(t, tt.src+"\ny = 1")
			marker := `raise NotImplementedError("vba2py: unsupported ` + tt.construct + ` (line 1)")`
			assert.Equal(t, lines(marker, "y = 1"), out)
			require.Len(t, diags, 1)
			assert.Equal(t, lang.SeverityWarning, diags[0].Severity)
			assert.Equal(t, lang.CodeUnsupported, diags[0].Code)
			assert.Equal(t, "unsupported "+tt.construct, diags[0].Message)
			assert.Equal(t, 1, diags[0].Pos.Line)
		})
	}
}

func TestDeclareBecomesStub(t *testing.T) {
	src := `Private Declare PtrSafe Function GetTickCount Lib "kernel32" () As Long`
	out, diags := translate(t, src)
	assert.True(t, strings.HasPrefix(out, "def GetTickCount():\n    raise NotImplementedError("), out)
	require.Len(t, diags, 1)
	assert.Equal(t, `unsupported external procedure GetTickCount (Declare in "kernel32")`, diags[0].Message)
}

func num(v string) *lang.Literal { return &lang.Literal{Kind: lang.NumberLit, Value: v} }

func TestStatementFaultRollsBack(t *testing.T) {
	prog := &lang.Program{Body: []lang.Stmt{
		&lang.AssignStmt{Target: &lang.Ident{Name: "a"}, Value: num("1")},
		&lang.IfStmt{Branches: []*lang.CondBranch{
			{Cond: &lang.Ident{Name: "a"}, Body: []lang.Stmt{
				&lang.AssignStmt{Target: &lang.Ident{Name: "x"}, Value: num("1")},
			}},
			{Cond: nil},
		}},
		&lang.AssignStmt{Target: &lang.Ident{Name: "y"}, Value: &lang.CallExpr{
			Callee: &lang.Ident{Name: "x"},
			Args:   []*lang.Arg{{Value: num("1")}},
		}},
	}}
	out, diags, err := Translate(prog, bare)
	require.NoError(t, err)
	assert.Equal(t, lines(
		"a = 1",
		`raise RuntimeError("vba2py: could not translate statement: missing expression (line 0)")`,
		"y = x(1)",
	), out)
	require.Len(t, diags, 1)
	assert.Equal(t, lang.SeverityError, diags[0].Severity)
	assert.Equal(t, lang.CodeStatementFault, diags[0].Code)
}

func TestStatementFaultRestoresRedefinedSymbol(t *testing.T) {
	head, err := lang.Parse("Dim x As Long")
	require.NoError(t, err)
	tail, err := lang.Parse("s = x & \"a\"")
	require.NoError(t, err)

	// The first constant redefines x as a string; the second one faults.
	redefine := &lang.DimStmt{Keyword: "const", Vars: []*lang.VarDecl{
		{Name: &lang.Ident{Name: "x"}, Value: &lang.Literal{Kind: lang.StringLit, Value: "a"}},
		{Name: &lang.Ident{Name: "y"}},
	}}
	prog := &lang.Program{Body: append(append(head.Body, redefine), tail.Body...)}

	out, diags, err := Translate(prog, bare)
	require.NoError(t, err)
	assert.Equal(t, lines(
		"x = 0",
		`raise RuntimeError("vba2py: could not translate statement: missing expression (line 0)")`,
		`s = str(x) + "a"`,
	), out)
	require.Len(t, diags, 1)
	assert.Equal(t, lang.CodeStatementFault, diags[0].Code)
}

func TestScopeRollbackUndoesRedefinition(t *testing.T) {
	s := newScope()
	long := s.declare(&symbol{Name: "n", Type: Known(TypeLong)})
	m := s.mark()

	s.define(&symbol{Name: "N", Type: Known(TypeString)})
	s.declare(&symbol{Name: "extra"})
	s.define(&symbol{Name: "extra", Array: true})

	s.rollback(m)
	got, ok := s.lookup("n")
	require.True(t, ok)
	assert.Same(t, long, got)
	assert.Equal(t, []string{"n"}, s.Names())
	_, ok = s.lookup("extra")
	assert.False(t, ok)
}

func TestReDimDoesNotMutateModuleSymbol(t *testing.T) {
	tr := &translator{opts: bare, ctx: newContext(), prevSimple: -1}
	prog, err := lang.Parse("Dim n As Long\nSub P()\n    ReDim n(3)\nEnd Sub")
	require.NoError(t, err)
	for _, s := range prog.Body {
		tr.genStmt(s)
	}
	sym, ok := tr.ctx.globals.lookup("n")
	require.True(t, ok)
	assert.False(t, sym.Array)
}

func TestCommentsAndBlankLines(t *testing.T) {
	out, _ := translate(t, "x = 1 ' one\n' two\n\nRem three\ny = 2")
	assert.Equal(t, lines("x = 1  # one", "# two", "", "# three", "y = 2"), out)
}

func TestCommentsOnBlockOpeningLines(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			"for",
			"Dim x As Long\nFor i = 1 To 3 ' iterate\n  x = x + i\nNext",
			lines("x = 0", "for i in range(1, 4):  # iterate", "    x = x + i"),
		},
		{
			"sub",
			"Dim s As String\nSub Foo() ' entry\n  s = \"a\"\nEnd Sub",
			lines(`s = ""`, "def Foo():  # entry", "    global s", `    s = "a"`),
		},
		{
			"if and else",
			"Dim y As String\nIf y = \"\" Then ' empty\n  z = 1\nElse ' other\n  z = 2\nEnd If",
			lines(`y = ""`, `if y == "":  # empty`, "    z = 1", "else:  # other", "    z = 2"),
		},
		{
			"post-test loop",
			"n = 0\nDo ' spin\n  n = n + 1\nLoop Until n > 3",
			lines("n = 0", "while True:  # spin", "    n = n + 1", "    if n > 3:", "        break"),
		},
		{
			"comment-only body",
			"x = 1\nFor i = 1 To 2 ' nothing\nNext",
			lines("x = 1", "for i in range(1, 3):  # nothing", "    pass"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := translate(t, tt.src)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSyntaxErrorDiagnostic(t *testing.T) {
	out, diags, err := TranslateSource("x = (1 + 2", DefaultOptions())
	require.Error(t, err)
	assert.Empty(t, out)
	require.Len(t, diags, 1)
	assert.Equal(t, lang.CodeSyntax, diags[0].Code)
	assert.Equal(t, lang.SeverityError, diags[0].Severity)
}

func TestPyNames(t *testing.T) {
	tests := map[string]string{
		"Total":   "Total",
		"class":   "class_",
		"None":    "None_",
		"My Var":  "My_Var",
		"2nd":     "_2nd",
		"Größe":   "Größe",
		"a-b.c":   "a_b_c",
		"":        "_",
		"lambda":  "lambda_",
		"_hidden": "_hidden",
	}
	for in, want := range tests {
		assert.Equal(t, want, pyName(in), in)
	}
	assert.Equal(t, `"tab\there\x01"`, pyString("tab\there\x01"))
}

func TestContractViolationDiagnostic(t *testing.T) {
	_, diags, err := TranslateSource("GoTo X\nOption Base 3", bare)
	require.Error(t, err)
	require.Len(t, diags, 2)
	assert.Equal(t, lang.CodeUnsupported, diags[0].Code)
	assert.Equal(t, lang.CodeContract, diags[1].Code)
	assert.Equal(t, 2, diags[1].Pos.Line)
}
