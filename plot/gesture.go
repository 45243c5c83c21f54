package plot

import "github.com/vitalchart/vitalchart/model"

// GestureState is the state of a drag gesture
// GestureState 拖拽手势的状态
type GestureState int

const (
	GestureIdle GestureState = iota
	GestureDragging
)

// Gesture is the pointer drag state machine of one panel
// Gesture 指针拖拽的小型状态机：Idle -> Dragging{panel, startX, origin} -> Idle。
// 拖拽过程中的窗口只保存在 pending 中，直到松开指针或 Tick 时才合并到面板。
// 一个手势只属于一个面板。
type Gesture struct {
	state   GestureState
	panelID string
	startX  float64
	origin  model.Viewport
	pending model.Viewport
	dirty   bool
}

// State returns the current state
// State 返回当前状态
func (g *Gesture) State() GestureState {
	return g.state
}

// Dragging returns the panel being dragged
// Dragging 返回正在拖拽的面板
func (g *Gesture) Dragging() (string, bool) {
	return g.panelID, g.state == GestureDragging
}

// Down starts a drag, failing when another panel owns the gesture
// Down 在面板上按下指针。已有其他面板的手势时返回 false。
func (g *Gesture) Down(panelID string, x float64, current model.Viewport) bool {
	if g.state == GestureDragging && g.panelID != panelID {
		return false
	}

	g.state = GestureDragging
	g.panelID = panelID
	g.startX = x
	g.origin = current
	g.pending = current
	g.dirty = false
	return true
}

// Move returns the preview viewport for the pointer position
// Move 拖动指针，返回预览窗口。不属于当前手势的面板返回 false。
func (g *Gesture) Move(panelID string, x, widthPx float64) (model.Viewport, bool) {
	if g.state != GestureDragging || g.panelID != panelID {
		return model.Viewport{}, false
	}

	g.pending = Pan(g.origin, x-g.startX, widthPx)
	g.dirty = true
	return g.pending, true
}

// Flush takes the pending preview viewport
// Flush 取出尚未合并的预览窗口（用于按帧合并）
func (g *Gesture) Flush() (string, model.Viewport, bool) {
	if g.state != GestureDragging || !g.dirty {
		return "", model.Viewport{}, false
	}
	g.dirty = false
	return g.panelID, g.pending, true
}

// Release ends the gesture and returns the final viewport
// Release 松开或离开指针，结束手势并返回最终窗口
func (g *Gesture) Release(panelID string) (model.Viewport, bool) {
	if g.state != GestureDragging || g.panelID != panelID {
		return model.Viewport{}, false
	}

	final := g.pending
	g.Cancel()
	return final, true
}

// Cancel drops the gesture
// Cancel 丢弃手势（例如数据重新加载时）
func (g *Gesture) Cancel() {
	*g = Gesture{}
}
