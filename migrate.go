package docmig

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	"go.uber.org/zap"
)

const (
	docReadme            = "Readme.md"
	docAuth              = "Auth.md"
	docPluginIntegration = "Plugin-Integration.md"
)

type Config struct {
	SourceDir    string
	TargetDir    string
	Phase        int // 0 runs every phase in order
	Undo         bool
	Redo         bool
	AdHoc        bool
	ValidateOnly bool
}

type ProgressUpdate func(current, total int)

// App wires the pipeline: parser -> classifier -> primitives/merger ->
// validator, executed phase by phase against the target tree.
type App struct {
	cfg          *Config
	log          *zap.SugaredLogger
	source       *PathResolver
	target       *PathResolver
	stateManager *StateManager
	mutator      *Mutator
	accumulator  *ConfigAccumulator
	validator    *Validator
	provider     *SourceProvider
	orchestrator Orchestrator

	progressCallback ProgressUpdate
	oldHashes        map[string]string
	fileActions      map[string]string
	warnings         []string
	skipped          []string
}

func NewApp(cfg *Config, log *zap.SugaredLogger) (*App, error) {
	source, err := NewPathResolver(cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	target, err := NewPathResolver(cfg.TargetDir)
	if err != nil {
		return nil, err
	}
	sm, err := NewStateManager(target.Root())
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:          cfg,
		log:          log,
		source:       source,
		target:       target,
		stateManager: sm,
		mutator:      NewMutator(log),
		accumulator:  NewConfigAccumulator(log),
		validator:    NewValidator(log),
		provider:     NewSourceProvider(),
		oldHashes:    make(map[string]string),
		fileActions:  make(map[string]string),
	}
	a.mutator.SetBeforeWrite(a.trackWrite)
	return a, nil
}

func (a *App) SetOrchestrator(o Orchestrator)        { a.orchestrator = o }
func (a *App) SetProgressCallback(cb ProgressUpdate) { a.progressCallback = cb }

func (a *App) Execute() (summary Summary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{Err: fmt.Errorf("panic: %v", r), Stack: debug.Stack()}
		}
	}()

	switch {
	case a.cfg.Undo:
		return a.undoLastRun()
	case a.cfg.Redo:
		return a.redoLastRun()
	case a.cfg.ValidateOnly:
		return a.validateOnly()
	case a.cfg.AdHoc:
		return a.applyAdHoc()
	default:
		return a.runPhases()
	}
}

func (a *App) runPhases() (Summary, error) {
	// A failed run is the one the user most wants to undo; record
	// whatever was applied no matter how we leave.
	defer a.recordHistory()

	phases := []PhaseID{Phase1, Phase2, Phase3}
	if a.cfg.Phase != 0 {
		phases = []PhaseID{PhaseID(a.cfg.Phase)}
	}

	var result ValidationResult
	for _, id := range phases {
		entry := a.validator.Validate(EntryMarkers(id, a.target.Root()))
		if !entry.OK() {
			return a.finish(result), fmt.Errorf("phase %s preconditions not met: %s",
				id.Name(), strings.Join(entry.Failed, "; "))
		}

		a.log.Infof("phase %s starting", id.Name())
		if err := a.runPhase(id); err != nil {
			return a.finish(result), err
		}

		if err := a.flushConfig(); err != nil {
			return a.finish(result), err
		}
		result.Merge(a.validator.Validate(ExitExpectations(id, a.target.Root())))
		if template, local := a.dualPaths(); local != "" {
			result.Merge(a.validator.CheckKeyParity(template, local))
		}
		a.log.Infof("phase %s done", id.Name())
	}

	summary := a.finish(result)
	if !result.OK() {
		return summary, fmt.Errorf("validation failed: %s", strings.Join(result.Failed, "; "))
	}
	return summary, nil
}

func (a *App) runPhase(id PhaseID) error {
	switch id {
	case Phase1:
		return a.runDocumentPhase(id, docReadme)
	case Phase2:
		return a.runAuthPhase()
	case Phase3:
		return a.runPluginPhase()
	}
	return fmt.Errorf("unknown phase %d", id)
}

func (a *App) runDocumentPhase(id PhaseID, docName string) error {
	doc, err := ParseDocument(a.source.Resolve(docName))
	if err != nil {
		return err
	}
	counter := NewStepCounter(a.log, id.Name(), len(doc.Steps))
	return a.applyDocument(doc, counter)
}

func (a *App) runAuthPhase() error {
	doc, err := ParseDocument(a.source.Resolve(docAuth))
	if err != nil {
		return err
	}

	docs := []*ParsedDocument{doc}
	for _, ref := range ProviderReferences(doc) {
		path := a.source.ResolveExisting(ref)
		if path == "" {
			a.warnf("provider guide %s referenced but not found", ref)
			continue
		}
		providerDoc, err := ParseDocument(path)
		if err != nil {
			a.warnf("provider guide %s unreadable: %v", ref, err)
			continue
		}
		docs = append(docs, providerDoc)
	}

	total := 0
	for _, d := range docs {
		total += len(d.Steps)
	}
	counter := NewStepCounter(a.log, Phase2.Name(), total)
	for _, d := range docs {
		if err := a.applyDocument(d, counter); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) runPluginPhase() error {
	if a.orchestrator == nil {
		return fmt.Errorf("phase %s requires an orchestrator", Phase3.Name())
	}
	if err := a.orchestrator.ValidatePrerequisites(); err != nil {
		return fmt.Errorf("orchestrator prerequisites: %w", err)
	}

	if path := a.source.ResolveExisting(docPluginIntegration); path != "" {
		doc, err := ParseDocument(path)
		if err != nil {
			return err
		}
		counter := NewStepCounter(a.log, Phase3.Name(), len(doc.Steps))
		if err := a.applyDocument(doc, counter); err != nil {
			return err
		}
	}

	result, err := a.orchestrator.Execute(&Context{
		SourceDir:   a.source.Root(),
		TargetDir:   a.target.Root(),
		Accumulator: a.accumulator,
		Mutator:     a.mutator,
		Log:         a.log,
	})
	if err != nil {
		return err
	}
	if !result.Success {
		a.warnf("orchestrator reported failure: %s", result.Summary)
	} else if result.Summary != "" {
		a.log.Infof("orchestrator: %s", result.Summary)
	}
	return nil
}

// applyDocument executes a parsed guide's steps in document order. A
// single primitive failure becomes a warning; only conditions that make
// the rest of the phase meaningless propagate.
func (a *App) applyDocument(doc *ParsedDocument, counter *StepCounter) error {
	cursor := newBlockCursor(doc.CodeBlocks)

	for _, req := range doc.Requirements {
		a.log.Debugf("requirement noted: %s", req)
	}

	for _, step := range doc.Steps {
		instr := Classify(step)
		counter.Advance(string(instr.Kind))
		a.reportProgress(counter.Progress())

		if err := a.dispatch(instr, cursor); err != nil {
			if _, fatal := err.(*SourceNotFoundError); fatal {
				return err
			}
			a.warnf("step %q: %v", truncate(step.Text, 60), err)
		}
	}
	return nil
}

func (a *App) dispatch(instr Instruction, cursor *blockCursor) error {
	switch instr.Kind {
	case CopyPathKind:
		return a.dispatchCopy(instr)
	case DeletePatternKind:
		return a.dispatchDelete(instr)
	case UpdateConfigKind:
		return a.dispatchConfig(instr, cursor)
	case AddImportKind:
		return a.dispatchAddImport(instr, cursor)
	case RemoveImportKind:
		return a.dispatchRemoveImport(instr)
	case InstallPackageKind:
		// Dependency installation is the orchestrator's business.
		a.skip(instr.Text)
		return nil
	default:
		a.log.Debugf("generic step skipped: %s", instr.Text)
		a.skip(instr.Text)
		return nil
	}
}

func (a *App) dispatchCopy(instr Instruction) error {
	if instr.Source == "" {
		return fmt.Errorf("no source path in copy instruction")
	}
	src := a.source.Resolve(instr.Source)
	dest := instr.Dest
	if dest == "" {
		dest = instr.Source
	}
	dst := a.target.Resolve(dest)

	err := a.mutator.CopyPath(src, dst)
	if err != nil {
		if _, missing := err.(*SourceNotFoundError); missing && IsOptionalAsset(src) {
			a.warnf("optional asset missing: %s", src)
			return nil
		}
	}
	return err
}

func (a *App) dispatchDelete(instr Instruction) error {
	if len(instr.Paths) == 0 {
		a.warnf("delete step without a quoted target: %s", instr.Text)
		return nil
	}

	// Whole-file removal only when the step names a file and nothing
	// else. Every other delete is an in-file snippet removal, e.g. the
	// default allow-all policy registration.
	if len(instr.Paths) == 1 && strings.Contains(strings.ToLower(instr.Text), "file") {
		if path := a.target.ResolveExisting(instr.Paths[0]); path != "" {
			return a.deleteFile(path)
		}
	}

	path := a.rolePath(roleForText(instr.Text))
	for _, token := range instr.Paths {
		if err := a.mutator.DeleteSnippet(path, token); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) deleteFile(path string) error {
	hash, _ := GetFileSHA256(path)
	if content, err := os.ReadFile(path); err == nil && hash != "" {
		_ = WriteBlob(a.stateManager.StateDir, hash, content)
	}
	if err := TrashFile(path, filepath.Join(a.stateManager.StateDir, TrashDir), a.target.Root()); err != nil {
		return err
	}
	a.oldHashes[path] = hash
	a.fileActions[path] = "delete"
	return nil
}

func (a *App) dispatchConfig(instr Instruction, cursor *blockCursor) error {
	block := cursor.next("yaml", "yml")
	if block == nil {
		return fmt.Errorf("no yaml block follows config instruction")
	}
	if err := a.accumulator.AddYAML(truncate(instr.Text, 40), block.Content); err != nil {
		return err
	}
	a.captureLiterals(block.Content)
	return nil
}

// captureLiterals resolves ${NAME} placeholders against the environment;
// a set variable is the literal worth localizing.
func (a *App) captureLiterals(content string) {
	for _, m := range placeholderRegex.FindAllStringSubmatch(content, -1) {
		if value := os.Getenv(m[1]); value != "" {
			a.accumulator.CaptureLiteral(m[1], value)
		}
	}
}

func (a *App) dispatchAddImport(instr Instruction, cursor *blockCursor) error {
	for _, m := range backtickRegex.FindAllStringSubmatch(instr.Text, -1) {
		if fragment := strings.TrimSpace(m[1]); strings.HasPrefix(fragment, "import ") {
			return a.applyFragment(a.targetFor(roleForText(instr.Text), fragment))
		}
	}

	block := cursor.next("typescript", "tsx", "javascript", "jsx", "ts", "js")
	if block == nil {
		return fmt.Errorf("no code block follows import instruction")
	}
	for _, line := range strings.Split(strings.Trim(block.Content, "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if err := a.applyFragment(a.targetFor(roleForText(instr.Text), line)); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) applyFragment(target MutationTarget) error {
	if ok, err := target.Satisfied(); err == nil && ok {
		a.log.Debugf("target %s already satisfied", target.Path)
		return nil
	}
	return a.mutator.InsertImport(target.Path, target.Fragment)
}

func (a *App) dispatchRemoveImport(instr Instruction) error {
	if len(instr.Paths) == 0 {
		return fmt.Errorf("no module named in remove-import instruction")
	}
	path := a.rolePath(roleForText(instr.Text))
	return a.mutator.RemoveImport(path, instr.Paths[0])
}

func (a *App) targetFor(role TargetRole, fragment string) MutationTarget {
	return MutationTarget{Role: role, Path: a.rolePath(role), Fragment: fragment}
}

func (a *App) rolePath(role TargetRole) string {
	return a.target.Resolve(rolePaths[role])
}

// roleForText guesses which logical target a step talks about.
func roleForText(text string) TargetRole {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "backend"):
		return RoleBackendEntry
	case strings.Contains(lower, "sidebar"), strings.Contains(lower, "root"), strings.Contains(lower, "theme"):
		return RoleThemeRoot
	case strings.Contains(lower, "package.json"), strings.Contains(lower, "dependencies"):
		return RolePackageManifest
	case strings.Contains(lower, "catalog"):
		return RoleCatalogDescriptor
	}
	return RoleAppEntry
}

func (a *App) flushConfig() error {
	if a.accumulator.Empty() {
		return nil
	}

	// The merger bypasses the mutator's write hook, so snapshot the
	// dual documents before it touches them.
	a.trackWrite(filepath.Join(a.target.Root(), TemplateConfigName))
	if a.accumulator.HasLiterals() {
		a.trackWrite(filepath.Join(a.target.Root(), LocalConfigName))
	}

	_, _, err := a.accumulator.BuildDualDocuments(a.target.Root())
	return err
}

func (a *App) dualPaths() (template, local string) {
	template = filepath.Join(a.target.Root(), TemplateConfigName)
	localPath := filepath.Join(a.target.Root(), LocalConfigName)
	if Exists(localPath) {
		local = localPath
	}
	return template, local
}

func (a *App) applyAdHoc() (Summary, error) {
	content, err := a.provider.GetContent()
	if err != nil || content == "" {
		return Summary{Message: "Empty source"}, err
	}

	doc, err := ParseInline(content)
	if err != nil {
		return Summary{}, err
	}
	defer a.recordHistory()

	counter := NewStepCounter(a.log, "ad-hoc", len(doc.Steps))
	if err := a.applyDocument(doc, counter); err != nil {
		return a.finish(ValidationResult{}), err
	}
	if err := a.flushConfig(); err != nil {
		return a.finish(ValidationResult{}), err
	}
	return a.finish(ValidationResult{}), nil
}

func (a *App) validateOnly() (Summary, error) {
	phases := []PhaseID{Phase1, Phase2, Phase3}
	if a.cfg.Phase != 0 {
		phases = []PhaseID{PhaseID(a.cfg.Phase)}
	}

	var result ValidationResult
	for _, id := range phases {
		result.Merge(a.validator.Validate(ExitExpectations(id, a.target.Root())))
	}
	if template, local := a.dualPaths(); local != "" {
		result.Merge(a.validator.CheckKeyParity(template, local))
	}

	s := a.finish(result)
	s.Message = fmt.Sprintf("Validation: %d passed, %d failed, %d warnings",
		len(result.Passed), len(result.Failed), len(result.Warnings))
	return s, nil
}

func (a *App) undoLastRun() (Summary, error) {
	ops := a.stateManager.GetOperationsToUndo()
	if len(ops) == 0 {
		return Summary{Message: "No undo"}, nil
	}
	s := a.stateManager.Undo(ops)
	s.Message = "Undone"
	a.relativizePaths(&s)
	return s, nil
}

func (a *App) redoLastRun() (Summary, error) {
	ops := a.stateManager.GetOperationsToRedo()
	if len(ops) == 0 {
		return Summary{Message: "No redo"}, nil
	}
	s := a.stateManager.Redo(ops)
	s.Message = "Redone"
	a.relativizePaths(&s)
	return s, nil
}

// trackWrite snapshots a file the first time a primitive touches it so
// the run can be undone.
func (a *App) trackWrite(path string) {
	if _, seen := a.oldHashes[path]; seen {
		return
	}
	hash, _ := GetFileSHA256(path)
	a.oldHashes[path] = hash
	if hash == "" {
		a.fileActions[path] = "create"
		return
	}
	a.fileActions[path] = "modify"
	if content, err := os.ReadFile(path); err == nil {
		_ = WriteBlob(a.stateManager.StateDir, hash, content)
	}
}

func (a *App) recordHistory() {
	// Drop entries whose content never actually changed; idempotent
	// re-runs must not pollute the undo history.
	actions := make(map[string]string, len(a.fileActions))
	for path, action := range a.fileActions {
		if action != "delete" {
			current, _ := GetFileSHA256(path)
			if current == a.oldHashes[path] {
				continue
			}
		}
		actions[path] = action
	}
	ops := a.stateManager.CreateOperations(actions, a.oldHashes)
	a.stateManager.Write(ops)
}

func (a *App) finish(result ValidationResult) Summary {
	var s Summary
	for path, action := range a.fileActions {
		current, _ := GetFileSHA256(path)
		switch action {
		case "create":
			if current != "" {
				s.Created = append(s.Created, path)
			}
		case "modify":
			if current != a.oldHashes[path] {
				s.Modified = append(s.Modified, path)
			}
		case "delete":
			s.Deleted = append(s.Deleted, path)
		}
	}
	sort.Strings(s.Created)
	sort.Strings(s.Modified)
	sort.Strings(s.Deleted)
	s.Skipped = append(s.Skipped, a.skipped...)
	s.Warnings = append(s.Warnings, a.warnings...)
	s.Warnings = append(s.Warnings, result.Warnings...)
	s.Failed = append(s.Failed, result.Failed...)
	if len(result.Passed) > 0 || len(result.Failed) > 0 {
		s.Message = fmt.Sprintf("Checks: %d passed, %d failed, %d warnings",
			len(result.Passed), len(result.Failed), len(result.Warnings)+len(a.warnings))
	}
	a.relativizePaths(&s)
	return s
}

func (a *App) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.log.Warnf("%s", msg)
	a.warnings = append(a.warnings, msg)
}

func (a *App) skip(text string) {
	a.skipped = append(a.skipped, truncate(text, 60))
}

func (a *App) reportProgress(current, total int) {
	if a.progressCallback != nil {
		a.progressCallback(current, total)
	}
}

func (a *App) relativizePaths(s *Summary) {
	root := a.target.Root()
	relList := func(paths []string) []string {
		var out []string
		for _, p := range paths {
			if r, err := filepath.Rel(root, p); err == nil && !strings.HasPrefix(r, "..") {
				out = append(out, r)
				continue
			}
			out = append(out, p)
		}
		return out
	}
	s.Created = relList(s.Created)
	s.Modified = relList(s.Modified)
	s.Deleted = relList(s.Deleted)
	s.Failed = relList(s.Failed)
}

// blockCursor hands out a document's code blocks in order, each at most
// once, so a later instruction cannot reuse an earlier block's anchor.
type blockCursor struct {
	blocks []CodeBlock
	used   []bool
}

func newBlockCursor(blocks []CodeBlock) *blockCursor {
	return &blockCursor{blocks: blocks, used: make([]bool, len(blocks))}
}

func (c *blockCursor) next(langs ...string) *CodeBlock {
	for i := range c.blocks {
		if c.used[i] {
			continue
		}
		for _, lang := range langs {
			if strings.EqualFold(c.blocks[i].Lang, lang) {
				c.used[i] = true
				return &c.blocks[i]
			}
		}
	}
	return nil
}
