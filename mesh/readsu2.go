package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_Line          SU2ElementType = 3
	ELType_Triangle                     = 5
	ELType_Quadrilateral                = 9
)

// ReadSU2 loads a 2D triangular mesh in SU2 format. Marker (boundary tag)
// sections are skipped: boundary edges are recovered topologically by New,
// and this solver applies the same Dirichlet treatment on all of them.
func ReadSU2(filename string, verbose bool) (msh *Mesh, err error) {
	var (
		file *os.File
	)
	if verbose {
		fmt.Printf("Reading SU2 file named: %s\n", filename)
	}
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	return readSU2(bufio.NewReader(file))
}

func readSU2(reader *bufio.Reader) (msh *Mesh, err error) {
	var (
		ndime int
		etov  [][3]int
	)
	if ndime, err = readNumber(reader); err != nil {
		return
	}
	if ndime != 2 {
		return nil, fmt.Errorf("only 2D meshes are supported, NDIME = %d", ndime)
	}
	nelem, err := readNumber(reader)
	if err != nil {
		return
	}
	etov = make([][3]int, nelem)
	for k := 0; k < nelem; k++ {
		var (
			nType      int
			v1, v2, v3 int
			line       string
		)
		if line, err = getLineNoComments(reader); err != nil {
			return
		}
		if _, err = fmt.Sscanf(line, "%d %d %d %d", &nType, &v1, &v2, &v3); err != nil {
			return nil, fmt.Errorf("unable to read element %d from line [%s]: %w", k, line, err)
		}
		if SU2ElementType(nType) != ELType_Triangle {
			return nil, fmt.Errorf("element %d has type %d, only triangles are supported", k, nType)
		}
		etov[k] = [3]int{v1, v2, v3}
	}
	npoin, err := readNumber(reader)
	if err != nil {
		return
	}
	var (
		vx = make([]float64, npoin)
		vy = make([]float64, npoin)
	)
	for i := 0; i < npoin; i++ {
		var line string
		if line, err = getLineNoComments(reader); err != nil {
			return
		}
		if _, err = fmt.Sscanf(line, "%f %f", &vx[i], &vy[i]); err != nil {
			return nil, fmt.Errorf("unable to read vertex %d from line [%s]: %w", i, line, err)
		}
	}
	return New(vx, vy, etov)
}

func getLine(reader *bufio.Reader) (line string, err error) {
	line, err = reader.ReadString('\n')
	if err != nil {
		if err == io.EOF && len(line) > 0 {
			return line, nil
		}
		return "", fmt.Errorf("early end of file: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	return
}

func getLineNoComments(reader *bufio.Reader) (line string, err error) {
	for {
		if line, err = getLine(reader); err != nil {
			return
		}
		line = strings.Trim(line, " ")
		if !strings.HasPrefix(line, "%") && len(line) != 0 {
			return
		}
	}
}

func getToken(reader *bufio.Reader) (token string, err error) {
	var line string
	if line, err = getLineNoComments(reader); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 {
		return "", fmt.Errorf("badly formed input line [%s], should have an =", line)
	}
	token = strings.Trim(line[ind+1:], " ")
	return
}

func readNumber(reader *bufio.Reader) (num int, err error) {
	var token string
	if token, err = getToken(reader); err != nil {
		return
	}
	if _, err = fmt.Sscanf(token, "%d", &num); err != nil {
		return 0, fmt.Errorf("unable to read number from token: [%s]", token)
	}
	return
}
