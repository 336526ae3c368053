package systems

import (
	"github.com/gonewx/worm/pkg/components"
	"github.com/gonewx/worm/pkg/ecs"
)

// SnapshotWorm 返回蠕虫所有体节的只读姿态（头到尾）
//
// 顺序与数量在蠕虫生命周期内不变，渲染和录像按索引读取。
func SnapshotWorm(em *ecs.EntityManager, id ecs.EntityID) []components.SegmentPose {
	worm, ok := ecs.GetComponent[*components.WormComponent](em, id)
	if !ok {
		return nil
	}
	return AppendSnapshot(nil, worm)
}

// AppendSnapshot 把姿态追加到 dst，供每帧复用切片
func AppendSnapshot(dst []components.SegmentPose, worm *components.WormComponent) []components.SegmentPose {
	for i := range worm.Segments {
		seg := &worm.Segments[i]
		pos := seg.Body.Position()
		dst = append(dst, components.SegmentPose{
			Index:  seg.Index,
			X:      pos.X,
			Y:      pos.Y,
			Angle:  seg.Body.Angle(),
			Radius: seg.Radius,
		})
	}
	return dst
}
