package fwdirectory

// MockInspector populates a directory with a fixed, caller-supplied set
// of images, independent of the boot index. It is grounded on the
// original source's mock_fw_inspector.c and yields a deterministic
// directory without wiring real installers.
type MockInspector struct {
	Images []ImageInfo
}

func NewMockInspector(images ...ImageInfo) *MockInspector {
	return &MockInspector{Images: images}
}

func (m *MockInspector) Inspect(dir *FwDirectory, bootIndex uint32) error {
	for _, info := range m.Images {
		dir.AddImageInfo(info)
	}
	return nil
}
