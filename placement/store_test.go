package placement

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/paulIordache/Architecture-Web/core"
)

func table(id core.ID) core.PlacedObject {
	return core.PlacedObject{
		ID:          id,
		ProjectID:   7,
		FurnitureID: 2,
		Furniture:   core.Furniture{ID: 2, Name: "Table"},
	}
}

func TestNewStore(t *testing.T) {
	s := NewStore()
	if s == nil {
		t.Fatal("NewStore() returned nil")
	}
	if snap := s.Snapshot(); snap == nil || len(snap.Objects) != 0 || snap.Selected != core.NoID {
		t.Errorf("NewStore() initial snapshot = %+v, want empty", snap)
	}
}

func TestAdd_Success(t *testing.T) {
	s := NewStore()

	if err := s.Add(table(1)); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	got, ok := s.Get(1)
	if !ok {
		t.Fatal("Get() did not find added object")
	}
	if got.Furniture.Name != "Table" {
		t.Errorf("Get() furniture = %q, want Table", got.Furniture.Name)
	}
}

func TestAdd_DuplicateID(t *testing.T) {
	s := NewStore()
	if err := s.Add(table(1)); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	err := s.Add(table(1))
	if !errors.Is(err, ErrDuplicateID) {
		t.Errorf("Add() duplicate error = %v, want ErrDuplicateID", err)
	}
	if n := len(s.List()); n != 1 {
		t.Errorf("List() length = %d, want 1", n)
	}
}

func TestAdd_MissingID(t *testing.T) {
	s := NewStore()

	if err := s.Add(table(core.NoID)); err == nil {
		t.Error("Add() should reject an object without an id")
	}
}

func TestAdd_NormalizesRotation(t *testing.T) {
	s := NewStore()
	obj := table(1)
	obj.Rotation = 3 * math.Pi

	if err := s.Add(obj); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	got, _ := s.Get(1)
	if got.Rotation <= -math.Pi || got.Rotation > math.Pi {
		t.Errorf("stored rotation = %v, want within (-π, π]", got.Rotation)
	}
}

func TestUpdateTransform_RoundTrip(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.Add(table(2))

	pos := core.Vec3{X: 2.3, Y: 0, Z: -1.1}
	if !s.UpdateTransform(1, pos, 0.5) {
		t.Fatal("UpdateTransform() returned false for a known object")
	}

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("List() length = %d, want 2", len(list))
	}
	count := 0
	for _, o := range list {
		if o.ID != 1 {
			continue
		}
		count++
		if o.Position() != pos || o.Rotation != 0.5 {
			t.Errorf("object 1 transform = %+v / %v, want %+v / 0.5", o.Position(), o.Rotation, pos)
		}
	}
	if count != 1 {
		t.Errorf("object 1 appears %d times, want 1", count)
	}
}

func TestUpdateTransform_UnknownID(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	before := s.Snapshot()

	if s.UpdateTransform(99, core.Vec3{X: 1}, 0) {
		t.Error("UpdateTransform() returned true for an unknown object")
	}
	if s.Snapshot() != before {
		t.Error("UpdateTransform() on unknown id published a new snapshot")
	}
}

func TestUpdateTransform_190Degrees(t *testing.T) {
	s := NewStore()
	s.Add(table(1))

	deg190 := 190 * math.Pi / 180
	s.UpdateTransform(1, core.Vec3{}, deg190)

	got, _ := s.Get(1)
	if got.Rotation <= -math.Pi || got.Rotation > math.Pi {
		t.Fatalf("rotation = %v, want within (-π, π]", got.Rotation)
	}
	if math.Abs(math.Cos(got.Rotation)-math.Cos(deg190)) > 1e-12 || math.Abs(math.Sin(got.Rotation)-math.Sin(deg190)) > 1e-12 {
		t.Errorf("rotation = %v does not describe 190°", got.Rotation)
	}
}

func TestSnapshot_Immutable(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	old := s.Snapshot()

	s.UpdateTransform(1, core.Vec3{X: 5}, 0)

	if old.Objects[0].X != 0 {
		t.Errorf("old snapshot mutated: X = %v, want 0", old.Objects[0].X)
	}
	if s.Snapshot().Version <= old.Version {
		t.Errorf("Version did not advance: %d -> %d", old.Version, s.Snapshot().Version)
	}
}

func TestList_ReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Add(table(1))

	list := s.List()
	list[0].X = 42

	if got, _ := s.Get(1); got.X != 0 {
		t.Errorf("mutating List() result changed the store: X = %v", got.X)
	}
}

func TestSelect_Toggle(t *testing.T) {
	s := NewStore()
	s.Add(table(1))

	if got := s.Select(1); got != 1 {
		t.Fatalf("Select() = %d, want 1", got)
	}
	if got := s.Select(1); got != core.NoID {
		t.Errorf("second Select() = %d, want none", got)
	}
}

func TestSelect_SwitchesObject(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.Add(table(2))

	s.Select(1)
	if got := s.Select(2); got != 2 {
		t.Errorf("Select(2) = %d, want 2", got)
	}
}

func TestSelect_UnknownID(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.Select(1)

	if got := s.Select(99); got != 1 {
		t.Errorf("Select(unknown) = %d, want selection unchanged (1)", got)
	}
}

func TestRemove_ClearsSelection(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.SetSelected(1)

	if !s.Remove(1) {
		t.Fatal("Remove() returned false for a known object")
	}
	if s.Selected() != core.NoID {
		t.Errorf("Selected() = %d after removal, want none", s.Selected())
	}
	if _, ok := s.Get(1); ok {
		t.Error("Get() found removed object")
	}
}

func TestRemove_Unknown(t *testing.T) {
	s := NewStore()

	if s.Remove(1) {
		t.Error("Remove() returned true for an unknown object")
	}
}

func TestReplace_PreservesOrderAndCatalog(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.Add(table(2))

	ok := s.Replace(core.PlacedObject{ID: 1, ProjectID: 7, FurnitureID: 2, X: 1, Rotation: 4})
	if !ok {
		t.Fatal("Replace() returned false for a known object")
	}

	list := s.List()
	if list[0].ID != 1 || list[1].ID != 2 {
		t.Errorf("order after Replace() = [%d %d], want [1 2]", list[0].ID, list[1].ID)
	}
	if list[0].Furniture.Name != "Table" {
		t.Errorf("Replace() dropped embedded catalog entry: %+v", list[0].Furniture)
	}
	if list[0].X != 1 {
		t.Errorf("Replace() X = %v, want 1", list[0].X)
	}
	if list[0].Rotation > math.Pi {
		t.Errorf("Replace() rotation = %v, want normalized", list[0].Rotation)
	}
}

func TestReset_ClearsMissingSelection(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.SetSelected(1)

	s.Reset([]core.PlacedObject{table(2), table(3), table(2)})

	if s.Selected() != core.NoID {
		t.Errorf("Selected() = %d, want none after reset without object 1", s.Selected())
	}
	if n := len(s.List()); n != 2 {
		t.Errorf("List() length = %d, want 2 (duplicates dropped)", n)
	}
}

func TestReset_KeepsPresentSelection(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.SetSelected(1)

	s.Reset([]core.PlacedObject{table(1)})

	if s.Selected() != 1 {
		t.Errorf("Selected() = %d, want 1", s.Selected())
	}
}

func TestBeginDrag_Exclusive(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.Add(table(2))
	now := time.Now()

	sess, err := s.BeginDrag(1, 10, now)
	if err != nil {
		t.Fatalf("BeginDrag() failed: %v", err)
	}
	if sess.ObjectID != 1 || sess.PointerID != 10 || !sess.StartedAt.Equal(now) {
		t.Errorf("BeginDrag() session = %+v", sess)
	}

	if _, err := s.BeginDrag(2, 11, now); !errors.Is(err, ErrDragActive) {
		t.Errorf("second BeginDrag() error = %v, want ErrDragActive", err)
	}
	if _, err := s.BeginDrag(1, 11, now); !errors.Is(err, ErrDragActive) {
		t.Errorf("BeginDrag() on same object error = %v, want ErrDragActive", err)
	}
}

func TestBeginDrag_UnknownObject(t *testing.T) {
	s := NewStore()

	if _, err := s.BeginDrag(1, 1, time.Now()); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("BeginDrag() error = %v, want ErrUnknownObject", err)
	}
}

func TestBeginDrag_SnapshotsStart(t *testing.T) {
	s := NewStore()
	obj := table(1)
	obj.X, obj.Y, obj.Rotation = 1, 0.5, 0.25
	s.Add(obj)

	sess, _ := s.BeginDrag(1, 1, time.Now())
	s.UpdateTransform(1, core.Vec3{X: 9, Y: 0.5}, 0.25)

	want := core.Transform{Position: core.Vec3{X: 1, Y: 0.5}, Rotation: 0.25}
	if sess.Start != want {
		t.Errorf("session start = %+v, want %+v", sess.Start, want)
	}
}

func TestEndDrag(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.BeginDrag(1, 1, time.Now())

	if _, ok := s.EndDrag(2); ok {
		t.Error("EndDrag() for a non-owner returned ok")
	}
	if _, ok := s.EndDrag(1); !ok {
		t.Error("EndDrag() for the owner returned !ok")
	}
	if s.ActiveDrag() != nil {
		t.Error("ActiveDrag() not cleared")
	}
	if _, err := s.BeginDrag(1, 2, time.Now()); err != nil {
		t.Errorf("BeginDrag() after EndDrag() failed: %v", err)
	}
}

func TestRemove_ClearsDrag(t *testing.T) {
	s := NewStore()
	s.Add(table(1))
	s.BeginDrag(1, 1, time.Now())

	s.Remove(1)

	if s.ActiveDrag() != nil {
		t.Error("ActiveDrag() should be cleared when the dragged object is removed")
	}
}

func TestSubscribe(t *testing.T) {
	s := NewStore()
	var versions []uint64
	cancel := s.Subscribe(func(snap *Snapshot) {
		versions = append(versions, snap.Version)
	})

	s.Add(table(1))
	s.Select(1)
	s.UpdateTransform(99, core.Vec3{}, 0)
	cancel()
	s.Select(1)

	if len(versions) != 2 || versions[0] != 1 || versions[1] != 2 {
		t.Errorf("subscriber saw versions %v, want [1 2]", versions)
	}
}

func TestConcurrentReadsAndWrites(t *testing.T) {
	s := NewStore()
	s.Add(table(1))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.UpdateTransform(1, core.Vec3{X: float64(i), Z: float64(j)}, 0)
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if n := len(s.Snapshot().Objects); n != 1 {
					t.Errorf("snapshot length = %d, want 1", n)
					return
				}
			}
		}()
	}
	wg.Wait()
}
