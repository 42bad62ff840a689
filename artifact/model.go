package artifact

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/nmftune/nmf"
)

// factorMatrix is the serialized form of one dense factor, row-major.
type factorMatrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

func toFactorMatrix(m *mat.Dense) factorMatrix {
	rows, cols := m.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data = append(data, m.At(i, j))
		}
	}
	return factorMatrix{Rows: rows, Cols: cols, Data: data}
}

func (f factorMatrix) dense() (*mat.Dense, error) {
	if len(f.Data) != f.Rows*f.Cols {
		return nil, fmt.Errorf("artifact: factor has %d values for %dx%d shape", len(f.Data), f.Rows, f.Cols)
	}
	return mat.NewDense(f.Rows, f.Cols, f.Data), nil
}

// modelRecord is the serialized form of a fitted model.
type modelRecord struct {
	W          factorMatrix        `json:"w"`
	H          factorMatrix        `json:"h"`
	HP         nmf.Hyperparameters `json:"hyperparameters"`
	Loss       float64             `json:"loss"`
	Iterations int                 `json:"iterations"`
}

func toModelRecord(m *nmf.Model) modelRecord {
	return modelRecord{
		W:          toFactorMatrix(m.W),
		H:          toFactorMatrix(m.H),
		HP:         m.HP,
		Loss:       m.Loss,
		Iterations: m.Iterations,
	}
}

func (r modelRecord) model() (*nmf.Model, error) {
	w, err := r.W.dense()
	if err != nil {
		return nil, err
	}
	h, err := r.H.dense()
	if err != nil {
		return nil, err
	}
	return &nmf.Model{
		W:          w,
		H:          h,
		HP:         r.HP,
		Loss:       r.Loss,
		Iterations: r.Iterations,
	}, nil
}
