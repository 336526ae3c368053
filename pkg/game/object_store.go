package game

import (
	"errors"
	"fmt"
	"slices"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// ErrNotFound 指定名称的存档不存在
var ErrNotFound = errors.New("entry not found")

// indexProperty 每个对象下记录条目名称列表的属性
const indexProperty = "index"

// objectStore 以名称为键的 gdata 对象存储
//
// gdataManager 为 nil 时退化为进程内存储（降级模式），
// 行为与持久化模式一致，只是不会写盘。
type objectStore struct {
	gdataManager *gdata.Manager
	object       string
	memory       map[string][]byte
}

func newObjectStore(gdataManager *gdata.Manager, object string) *objectStore {
	return &objectStore{
		gdataManager: gdataManager,
		object:       object,
		memory:       make(map[string][]byte),
	}
}

// validName 名称会直接成为文件名，只允许小写字母、数字、'-' 和 '_'
func validName(name string) error {
	if name == "" || name == indexProperty || len(name) > 64 {
		return fmt.Errorf("invalid name %q", name)
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("invalid name %q: only [a-z0-9_-] allowed", name)
		}
	}
	return nil
}

func (s *objectStore) save(name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if s.gdataManager == nil {
		s.memory[name] = slices.Clone(data)
		return nil
	}

	if err := s.gdataManager.SaveObjectProp(s.object, name, data); err != nil {
		return fmt.Errorf("failed to save %s/%s: %w", s.object, name, err)
	}

	names, err := s.names()
	if err != nil {
		return err
	}
	if slices.Contains(names, name) {
		return nil
	}
	names = append(names, name)
	slices.Sort(names)
	index, err := yaml.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to marshal %s index: %w", s.object, err)
	}
	if err := s.gdataManager.SaveObjectProp(s.object, indexProperty, index); err != nil {
		return fmt.Errorf("failed to save %s index: %w", s.object, err)
	}
	return nil
}

func (s *objectStore) load(name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	if s.gdataManager == nil {
		data, ok := s.memory[name]
		if !ok {
			return nil, fmt.Errorf("%s/%s: %w", s.object, name, ErrNotFound)
		}
		return slices.Clone(data), nil
	}

	if !s.gdataManager.ObjectPropExists(s.object, name) {
		return nil, fmt.Errorf("%s/%s: %w", s.object, name, ErrNotFound)
	}
	data, err := s.gdataManager.LoadObjectProp(s.object, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s/%s: %w", s.object, name, err)
	}
	return data, nil
}

func (s *objectStore) exists(name string) bool {
	if validName(name) != nil {
		return false
	}
	if s.gdataManager == nil {
		_, ok := s.memory[name]
		return ok
	}
	return s.gdataManager.ObjectPropExists(s.object, name)
}

// names 返回已保存条目的名称（升序）
func (s *objectStore) names() ([]string, error) {
	if s.gdataManager == nil {
		names := make([]string, 0, len(s.memory))
		for name := range s.memory {
			names = append(names, name)
		}
		slices.Sort(names)
		return names, nil
	}

	if !s.gdataManager.ObjectPropExists(s.object, indexProperty) {
		return nil, nil
	}
	data, err := s.gdataManager.LoadObjectProp(s.object, indexProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s index: %w", s.object, err)
	}
	var names []string
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s index: %w", s.object, err)
	}
	return names, nil
}
