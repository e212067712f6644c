// internal/blockchain/abi.go
package blockchain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Tên các method của contract CertificationRegistry.
const (
	MethodCertifyDocument             = "certifyDocument"
	MethodCertifications              = "certifications"
	MethodGetAnimalHistory            = "getAnimalHistory"
	MethodGetAnimalCertificationCount = "getAnimalCertificationCount"
)

const registryABI = `[
  {"type":"function","name":"certifyDocument","stateMutability":"nonpayable","outputs":[],
   "inputs":[
     {"name":"hash","type":"bytes32"},
     {"name":"animalId","type":"string"},
     {"name":"owner","type":"address"},
     {"name":"veterinarian","type":"address"},
     {"name":"ownerSig","type":"bytes"},
     {"name":"vetSig","type":"bytes"}]},
  {"type":"function","name":"certifications","stateMutability":"view",
   "inputs":[{"name":"","type":"bytes32"}],
   "outputs":[
     {"name":"owner","type":"address"},
     {"name":"veterinarian","type":"address"},
     {"name":"registrar","type":"address"},
     {"name":"timestamp","type":"uint256"}]},
  {"type":"event","name":"DocumentCertified","anonymous":false,
   "inputs":[
     {"indexed":true,"name":"hash","type":"bytes32"},
     {"indexed":true,"name":"owner","type":"address"},
     {"indexed":false,"name":"veterinarian","type":"address"},
     {"indexed":false,"name":"registrar","type":"address"},
     {"indexed":false,"name":"timestamp","type":"uint256"},
     {"indexed":false,"name":"animalId","type":"string"}]},
  {"type":"function","name":"getAnimalHistory","stateMutability":"view",
   "inputs":[{"name":"animalId","type":"string"}],
   "outputs":[
     {"name":"documentHashes","type":"bytes32[]"},
     {"name":"timestamps","type":"uint256[]"}]},
  {"type":"function","name":"getAnimalCertificationCount","stateMutability":"view",
   "inputs":[{"name":"animalId","type":"string"}],
   "outputs":[{"name":"","type":"uint256"}]}
]`

// RegistryABI trả về ABI đã parse của CertificationRegistry.
func RegistryABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(registryABI))
}
