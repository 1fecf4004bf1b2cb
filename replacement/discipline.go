package replacement

// A discipline is one replacement algorithm over the engine's shared state.
type discipline interface {
	victim(e *Engine, a Access, set []LineInfo) int
	update(e *Engine, a Access, way int, hit bool)
}

func disciplineFor(p Policy) discipline {
	switch p {
	case LRU:
		return lruDiscipline{}
	case Random:
		return randomDiscipline{}
	case SRRIP:
		return srripDiscipline{}
	case BIP:
		return bipDiscipline{}
	case BRRIP:
		return brripDiscipline{}
	case DRRIP:
		return drripDiscipline{}
	case SHiPPC:
		return shipDiscipline{}
	case PLRU:
		return plruDiscipline{}
	default:
		return nil
	}
}

type lruDiscipline struct{}

func (lruDiscipline) victim(e *Engine, a Access, _ []LineInfo) int {
	return e.lruVictim(a.SetIndex)
}

func (lruDiscipline) update(e *Engine, a Access, way int, _ bool) {
	e.promoteLRU(a.SetIndex, way)
}

type randomDiscipline struct{}

func (randomDiscipline) victim(e *Engine, _ Access, _ []LineInfo) int {
	return e.randomVictim()
}

func (randomDiscipline) update(*Engine, Access, int, bool) {}

type srripDiscipline struct{}

func (srripDiscipline) victim(e *Engine, a Access, _ []LineInfo) int {
	return e.rripVictim(a.SetIndex)
}

func (srripDiscipline) update(e *Engine, a Access, way int, hit bool) {
	e.updateSRRIP(a.SetIndex, way, hit)
}

type bipDiscipline struct{}

func (bipDiscipline) victim(e *Engine, a Access, _ []LineInfo) int {
	return e.lruVictim(a.SetIndex)
}

func (bipDiscipline) update(e *Engine, a Access, way int, hit bool) {
	e.updateBIP(a.SetIndex, way, hit)
}

type brripDiscipline struct{}

func (brripDiscipline) victim(e *Engine, a Access, _ []LineInfo) int {
	return e.rripVictim(a.SetIndex)
}

func (brripDiscipline) update(e *Engine, a Access, way int, hit bool) {
	e.updateBRRIP(a.SetIndex, way, hit)
}

type drripDiscipline struct{}

func (drripDiscipline) victim(e *Engine, a Access, _ []LineInfo) int {
	return e.rripVictim(a.SetIndex)
}

func (drripDiscipline) update(e *Engine, a Access, way int, hit bool) {
	e.updateDRRIP(a.SetIndex, way, hit)
}

type shipDiscipline struct{}

func (shipDiscipline) victim(e *Engine, a Access, _ []LineInfo) int {
	return e.rripVictim(a.SetIndex)
}

func (shipDiscipline) update(e *Engine, a Access, way int, hit bool) {
	e.updateSHiP(a.SetIndex, way, a.PC, hit)
}

type plruDiscipline struct{}

func (plruDiscipline) victim(e *Engine, a Access, _ []LineInfo) int {
	return e.plruVictim(a.SetIndex)
}

func (plruDiscipline) update(e *Engine, a Access, way int, hit bool) {
	e.updatePLRU(a.SetIndex, way, hit)
}
