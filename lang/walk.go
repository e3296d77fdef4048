package lang

// Inspect traverses the tree rooted at node in depth-first order, calling fn
// for each node before its children. If fn returns false the children of
// that node are skipped. Nil nodes are ignored.
func Inspect(node Node, fn func(Node) bool) {
	if node == nil || !fn(node) {
		return
	}
	switch n := node.(type) {
	case *DimStmt:
		for _, v := range n.Vars {
			for _, b := range v.Bounds {
				inspectExpr(b.Lower, fn)
				inspectExpr(b.Upper, fn)
			}
			inspectExpr(v.Value, fn)
		}
	case *ProcDecl:
		for _, param := range n.Params {
			inspectExpr(param.Default, fn)
		}
		inspectStmts(n.Body, fn)
	case *AssignStmt:
		inspectExpr(n.Target, fn)
		inspectExpr(n.Value, fn)
	case *CallStmt:
		inspectExpr(n.Callee, fn)
		inspectArgs(n.Args, fn)
	case *IfStmt:
		inspectBranches(n.Branches, fn)
		inspectStmts(n.Else, fn)
	case *PreprocIfStmt:
		inspectBranches(n.Branches, fn)
		inspectStmts(n.Else, fn)
	case *ForStmt:
		inspectExpr(n.Var, fn)
		inspectExpr(n.From, fn)
		inspectExpr(n.To, fn)
		inspectExpr(n.Step, fn)
		inspectStmts(n.Body, fn)
	case *ForEachStmt:
		inspectExpr(n.Var, fn)
		inspectExpr(n.In, fn)
		inspectStmts(n.Body, fn)
	case *LoopStmt:
		inspectExpr(n.Cond, fn)
		inspectStmts(n.Body, fn)
	case *WithStmt:
		inspectExpr(n.Target, fn)
		inspectStmts(n.Body, fn)
	case *OpenStmt:
		inspectExpr(n.Path, fn)
		inspectExpr(n.FileNum, fn)
		inspectExpr(n.Len, fn)
	case *CloseStmt:
		for _, e := range n.FileNums {
			inspectExpr(e, fn)
		}
	case *FileIOStmt:
		inspectExpr(n.FileNum, fn)
		inspectArgs(n.Args, fn)
	case *MemberExpr:
		inspectExpr(n.Object, fn)
	case *CallExpr:
		inspectExpr(n.Callee, fn)
		inspectArgs(n.Args, fn)
	case *BinaryExpr:
		inspectExpr(n.Left, fn)
		inspectExpr(n.Right, fn)
	case *UnaryExpr:
		inspectExpr(n.Expr, fn)
	case *ParenExpr:
		inspectExpr(n.Expr, fn)
	case *NewExpr:
		inspectExpr(n.Type, fn)
	}
}

// InspectProgram calls Inspect on every top-level statement.
func InspectProgram(prog *Program, fn func(Node) bool) {
	inspectStmts(prog.Body, fn)
}

func inspectStmts(stmts []Stmt, fn func(Node) bool) {
	for _, s := range stmts {
		Inspect(s, fn)
	}
}

func inspectBranches(branches []*CondBranch, fn func(Node) bool) {
	for _, b := range branches {
		inspectExpr(b.Cond, fn)
		inspectStmts(b.Body, fn)
	}
}

func inspectArgs(args []*Arg, fn func(Node) bool) {
	for _, a := range args {
		inspectExpr(a.Value, fn)
	}
}

// inspectExpr guards against typed nil expressions stored in interfaces.
func inspectExpr(e Expr, fn func(Node) bool) {
	if e == nil {
		return
	}
	if id, ok := e.(*Ident); ok && id == nil {
		return
	}
	Inspect(e, fn)
}
