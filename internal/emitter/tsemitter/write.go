package tsemitter

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// WriteOptions controls how an artifact set is placed on disk.
type WriteOptions struct {
	OutDir string // required
	Force  bool   // overwrite a non-empty output directory
	DryRun bool   // plan only, write nothing
}

// PlannedFile describes a file Write intends to produce.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// WriteResult lists the planned files in deterministic order.
type WriteResult struct {
	Planned []PlannedFile
}

// FileMap lays the artifact set out as project files. Scaffolding that is not
// part of the artifact set proper (tsconfig, jest config) is added here based
// on the emission options.
func FileMap(set *ArtifactSet, opts Options) map[string][]byte {
	js := opts.OutputFormat == FormatJavaScript
	ext := ".ts"
	if js {
		ext = ".js"
	}
	files := map[string][]byte{
		"client" + ext: []byte(set.Client),
		"package.json": []byte(set.Manifest),
		"README.md":    []byte(set.Readme),
	}
	if js {
		// In JavaScript mode the type declarations still ship, as an ambient
		// declaration file.
		files["types.d.ts"] = []byte(set.Types)
	} else {
		files["types.ts"] = []byte(set.Types)
	}
	if set.Examples != "" {
		files["examples"+ext] = []byte(set.Examples)
	}
	if !js {
		files["tsconfig.json"] = []byte(tsconfigJSON)
	}
	if opts.IncludeTests {
		files["jest.config.js"] = []byte(jestConfigJS)
	}
	return files
}

// Write places the artifact set under opts.OutDir. Writes are atomic (temp
// file plus rename) and a non-empty target directory is refused unless Force
// is set. DryRun plans without touching the filesystem.
func Write(set *ArtifactSet, opts Options, wopts WriteOptions) (*WriteResult, error) {
	if set == nil {
		return nil, fmt.Errorf("tsemitter: nil artifact set")
	}
	if strings.TrimSpace(wopts.OutDir) == "" {
		return nil, fmt.Errorf("tsemitter: OutDir is required")
	}
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	files := FileMap(set, opts)

	rels := make([]string, 0, len(files))
	for p := range files {
		rels = append(rels, filepath.ToSlash(p))
	}
	sort.Strings(rels)
	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}

	if !wopts.DryRun {
		if err := writeFiles(wopts.OutDir, files, wopts.Force); err != nil {
			return nil, err
		}
	}
	return &WriteResult{Planned: planned}, nil
}

func writeFiles(outDir string, files map[string][]byte, force bool) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("resolve out dir: %w", err)
	}
	if st, err := os.Stat(abs); err == nil && st.IsDir() && !force {
		entries, rerr := os.ReadDir(abs)
		if rerr == nil && len(entries) > 0 {
			return fmt.Errorf("tsemitter: output directory %q is not empty (use --force to overwrite)", abs)
		}
	}
	for rel, content := range files {
		p := filepath.Join(abs, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
		tmp := p + ".tmp-" + time.Now().Format("20060102150405")
		if err := os.WriteFile(tmp, content, 0o644); err != nil {
			return fmt.Errorf("write temp %s: %w", rel, err)
		}
		if err := os.Rename(tmp, p); err != nil {
			_ = os.Remove(tmp)
			return fmt.Errorf("rename %s: %w", rel, err)
		}
	}
	return nil
}

const tsconfigJSON = `{
  "compilerOptions": {
    "target": "ES2020",
    "module": "commonjs",
    "declaration": true,
    "outDir": "dist",
    "strict": true,
    "esModuleInterop": true,
    "skipLibCheck": true
  },
  "include": ["*.ts"],
  "exclude": ["node_modules", "dist"]
}
`

const jestConfigJS = `module.exports = {
  testEnvironment: 'node',
  testMatch: ['**/__tests__/**/*.test.[jt]s'],
};
`
