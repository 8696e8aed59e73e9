package common

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// SetupPaths locates the three files of a compiled circuit
type SetupPaths struct {
	CCS string
	PK  string
	VK  string
}

// NewSetupPaths builds the file names for a circuit stored in dir
func NewSetupPaths(dir, name string, version uint) SetupPaths {
	base := fmt.Sprintf("%s-%d", name, version)
	return SetupPaths{
		CCS: filepath.Join(dir, base+".ccs"),
		PK:  filepath.Join(dir, base+".pk"),
		VK:  filepath.Join(dir, base+".vk"),
	}
}

// Exists reports whether all three files are present
func (p SetupPaths) Exists() bool {
	return fileExists(p.CCS) && fileExists(p.PK) && fileExists(p.VK)
}

// Compile compiles a circuit template to an R1CS over BN254
func Compile(circuitTemplate frontend.Circuit) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, circuitTemplate)
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}
	return ccs, nil
}

// SetupAndSave compiles the circuit, runs the Groth16 setup and stores the
// constraint system and keys. It returns the number of constraints.
func SetupAndSave(circuitTemplate frontend.Circuit, paths SetupPaths) (int, error) {
	if err := ensureDirectories(paths.CCS, paths.PK, paths.VK); err != nil {
		return 0, err
	}

	ccs, err := Compile(circuitTemplate)
	if err != nil {
		return 0, err
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return 0, fmt.Errorf("groth16 setup failed: %w", err)
	}

	if err := writeTo(paths.CCS, ccs); err != nil {
		return 0, err
	}
	if err := writeTo(paths.PK, pk); err != nil {
		return 0, err
	}
	if err := writeTo(paths.VK, vk); err != nil {
		return 0, err
	}

	return ccs.GetNbConstraints(), nil
}

// LoadSetup loads a pre-compiled circuit and keys
func LoadSetup(paths SetupPaths) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey, error) {
	ccs := groth16.NewCS(ecc.BN254)
	if err := readFrom(paths.CCS, ccs); err != nil {
		return nil, nil, nil, err
	}

	pk := groth16.NewProvingKey(ecc.BN254)
	if err := readFrom(paths.PK, pk); err != nil {
		return nil, nil, nil, err
	}

	vk := groth16.NewVerifyingKey(ecc.BN254)
	if err := readFrom(paths.VK, vk); err != nil {
		return nil, nil, nil, err
	}

	return ccs, pk, vk, nil
}

// InitCircuit loads a compiled circuit, compiling it first when the files
// are missing or forceCompile is set
func InitCircuit(paths SetupPaths, forceCompile bool, circuitTemplate frontend.Circuit) (constraint.ConstraintSystem, groth16.ProvingKey, groth16.VerifyingKey, error) {
	for _, p := range []string{paths.CCS, paths.PK, paths.VK} {
		if err := validatePath(p); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid setup path: %w", err)
		}
	}

	if forceCompile || !paths.Exists() {
		if _, err := SetupAndSave(circuitTemplate, paths); err != nil {
			return nil, nil, nil, fmt.Errorf("setup and save failed: %w", err)
		}
	}

	return LoadSetup(paths)
}

func writeTo(path string, v io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := v.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func readFrom(path string, v io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := v.ReadFrom(f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}

func validatePath(p string) error {
	if p == "" {
		return errors.New("empty path")
	}
	if strings.Contains(filepath.ToSlash(p), "../") {
		return fmt.Errorf("path %s escapes its directory", p)
	}
	return nil
}

func ensureDirectories(paths ...string) error {
	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}
	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
