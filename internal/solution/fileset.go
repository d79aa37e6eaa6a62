package solution

// File is one path/content pair extracted from a model response.
type File struct {
	Path    string
	Content string
}

// FileSet is an ordered mapping from relative path to content.
// Paths keep the position of their first occurrence; a later block for the
// same path replaces the content.
type FileSet struct {
	files []File
	index map[string]int
}

// NewFileSet creates an empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{index: make(map[string]int)}
}

// Set adds or replaces the content for path.
func (s *FileSet) Set(path, content string) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[path]; ok {
		s.files[i].Content = content
		return
	}
	s.index[path] = len(s.files)
	s.files = append(s.files, File{Path: path, Content: content})
}

// Len returns the number of distinct paths.
func (s *FileSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.files)
}

// Files returns the entries in insertion order. The slice is a copy.
func (s *FileSet) Files() []File {
	if s == nil {
		return nil
	}
	out := make([]File, len(s.files))
	copy(out, s.files)
	return out
}

// Paths returns the paths in insertion order.
func (s *FileSet) Paths() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.files))
	for i, f := range s.files {
		out[i] = f.Path
	}
	return out
}
